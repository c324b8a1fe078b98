package snapshot

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/substrate"
	"github.com/sovereignkb/substrate/internal/vault"
)

func newTestSubstrate(t *testing.T, masterKey []byte) *substrate.Substrate {
	t.Helper()
	v, err := vault.New(masterKey)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	s, err := store.Open(filepath.Join(t.TempDir(), "substrate.db"), v, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return substrate.New(s, nil)
}

func TestSnapshotIsPure(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.SetSomaState(records.SomaState{SleepHours: 7, ReadinessScore: 90}); err != nil {
		t.Fatalf("SetSomaState: %v", err)
	}

	first, err := GetFullSovereignState(sub)
	if err != nil {
		t.Fatalf("GetFullSovereignState (1): %v", err)
	}
	second, err := GetFullSovereignState(sub)
	if err != nil {
		t.Fatalf("GetFullSovereignState (2): %v", err)
	}

	j1, _ := json.Marshal(first)
	j2, _ := json.Marshal(second)
	if string(j1) != string(j2) {
		t.Fatalf("repeated snapshot calls differ:\n%s\nvs\n%s", j1, j2)
	}
}

func TestSnapshotShadowLockedReporting(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	snap, err := GetFullSovereignState(sub)
	if err != nil {
		t.Fatalf("GetFullSovereignState: %v", err)
	}
	if snap.ShadowUnlocked {
		t.Fatal("expected shadow_unlocked = false")
	}
	found := false
	for _, st := range snap.Status {
		if st.Slot == store.Shadow {
			found = true
			if st.Error != "LOCKED (no master key)" {
				t.Fatalf("slot 9 error = %q, want LOCKED (no master key)", st.Error)
			}
		}
	}
	if !found {
		t.Fatal("slot 9 missing from status list")
	}
}

func TestSnapshotBioGateElevationReflected(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.SetSomaState(records.SomaState{SleepHours: 5.0, ReadinessScore: 80}); err != nil {
		t.Fatalf("SetSomaState: %v", err)
	}
	snap, err := GetFullSovereignState(sub)
	if err != nil {
		t.Fatalf("GetFullSovereignState: %v", err)
	}
	if !snap.BioGateActive {
		t.Fatal("expected bio_gate_active = true")
	}
	if snap.MentalState.GraceMultiplier != records.GraceOverride {
		t.Fatalf("grace_multiplier = %f, want %f", snap.MentalState.GraceMultiplier, records.GraceOverride)
	}
}
