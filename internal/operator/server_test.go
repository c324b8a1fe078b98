package operator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sovereignkb/substrate/internal/audit"
	"github.com/sovereignkb/substrate/internal/governor"
	"github.com/sovereignkb/substrate/internal/prune"
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/substrate"
	"github.com/sovereignkb/substrate/internal/vault"
)

func startTestServer(t *testing.T) (string, *substrate.Substrate) {
	t.Helper()
	v, err := vault.New(nil)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	s, err := store.Open(filepath.Join(t.TempDir(), "substrate.db"), v, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	sub := substrate.New(s, nil)

	bucket := prune.NewBucket(100, time.Hour)
	t.Cleanup(bucket.Close)

	sockPath := filepath.Join(t.TempDir(), "operator.sock")
	srv := NewServer(sockPath, sub, governor.DefaultWeights(), bucket, 90*24*time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.ListenAndServe(ctx) }()

	// Wait for the socket to appear.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := Call(sockPath, "status"); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	return sockPath, sub
}

func TestOperatorStatusCommand(t *testing.T) {
	sockPath, _ := startTestServer(t)
	resp, err := Call(sockPath, "status")
	if err != nil {
		t.Fatalf("Call(status): %v", err)
	}
	if len(resp.Status) != 9 {
		t.Fatalf("status entries = %d, want 9", len(resp.Status))
	}
}

func TestOperatorSnapshotCommand(t *testing.T) {
	sockPath, _ := startTestServer(t)
	resp, err := Call(sockPath, "snapshot")
	if err != nil {
		t.Fatalf("Call(snapshot): %v", err)
	}
	if resp.Snapshot == nil {
		t.Fatal("expected snapshot payload")
	}
}

func TestOperatorUnknownCommand(t *testing.T) {
	sockPath, _ := startTestServer(t)
	if _, err := Call(sockPath, "bogus"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestOperatorEvaluateCommand(t *testing.T) {
	sockPath, sub := startTestServer(t)
	if err := sub.PutTask(records.GovernedTask{TaskID: "t1", BasePriority: 1.0, Difficulty: records.DifficultyEasy}); err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	resp, err := Call(sockPath, "evaluate")
	if err != nil {
		t.Fatalf("Call(evaluate): %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].EffectivePriority <= 0 {
		t.Fatalf("unexpected evaluate result: %+v", resp.Tasks)
	}
}

func TestOperatorAuditCommand(t *testing.T) {
	sockPath, sub := startTestServer(t)
	sub.SetAuditTrail(audit.NewTrail(audit.DefaultBounds()))
	if _, err := sub.Allows("write_file", "harmless"); err != nil {
		t.Fatalf("Allows: %v", err)
	}

	resp, err := Call(sockPath, "audit")
	if err != nil {
		t.Fatalf("Call(audit): %v", err)
	}
	if len(resp.Decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(resp.Decisions))
	}
	if resp.Decisions[0].Kind != audit.KindPolicyDecision {
		t.Fatalf("decision kind = %q, want policy_decision", resp.Decisions[0].Kind)
	}
}
