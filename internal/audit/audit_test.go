package audit

import "testing"

func TestTrailChainsAndVerifies(t *testing.T) {
	tr := NewTrail(DefaultBounds())
	if _, err := tr.Record(KindPolicyDecision, "write_file", "blocked: api_key", 1.0, nil); err != nil {
		t.Fatalf("Record 1: %v", err)
	}
	if _, err := tr.Record(KindGovernanceEvaluation, "agent-1", "2 tasks evaluated", 0.5, nil); err != nil {
		t.Fatalf("Record 2: %v", err)
	}
	if err := tr.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestTrailRejectsOutOfBoundsScore(t *testing.T) {
	tr := NewTrail(DefaultBounds())
	if _, err := tr.Record(KindPolicyDecision, "x", "y", 1.5, nil); err == nil {
		t.Fatal("expected error for out-of-bounds score")
	}
}

func TestTrailRejectsNaN(t *testing.T) {
	tr := NewTrail(DefaultBounds())
	if _, err := tr.Record(KindPolicyDecision, "x", "y", nan(), nil); err == nil {
		t.Fatal("expected error for NaN score")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
