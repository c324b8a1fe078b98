package derive

import (
	"path/filepath"
	"strings"
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

func TestBioGateElevationTakesPriorityOverLegacy(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.SetSomaState(records.SomaState{SleepHours: 5.0, ReadinessScore: 80}); err != nil {
		t.Fatalf("SetSomaState: %v", err)
	}
	if err := sub.SetBiometricState(records.BiometricState{SleepScore: 40}); err != nil {
		t.Fatalf("SetBiometricState: %v", err)
	}

	mental, err := EffectiveMentalState(sub)
	if err != nil {
		t.Fatalf("EffectiveMentalState: %v", err)
	}
	if mental.GraceMultiplier != records.GraceOverride {
		t.Fatalf("grace_multiplier = %f, want %f", mental.GraceMultiplier, records.GraceOverride)
	}
	if mental.BurnoutRisk < records.BurnoutIncrement {
		t.Fatalf("burnout_risk = %f, want >= base+%f", mental.BurnoutRisk, records.BurnoutIncrement)
	}

	soma, err := sub.GetSomaState()
	if err != nil {
		t.Fatalf("GetSomaState: %v", err)
	}
	if !BioGateActive(soma) {
		t.Fatal("expected bio_gate_active true")
	}
}

func TestNoElevationWithoutAnyReadings(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	mental, err := EffectiveMentalState(sub)
	if err != nil {
		t.Fatalf("EffectiveMentalState: %v", err)
	}
	if mental.GraceMultiplier != 1.0 || mental.BurnoutRisk != 0 {
		t.Fatalf("empty partitions elevated mental state: %+v", mental)
	}
}

func TestLegacyFallbackAppliesWhenSomaFine(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.SetSomaState(records.SomaState{SleepHours: 8, ReadinessScore: 90}); err != nil {
		t.Fatalf("SetSomaState: %v", err)
	}
	if err := sub.SetBiometricState(records.BiometricState{SleepScore: 40}); err != nil {
		t.Fatalf("SetBiometricState: %v", err)
	}

	mental, err := EffectiveMentalState(sub)
	if err != nil {
		t.Fatalf("EffectiveMentalState: %v", err)
	}
	if mental.GraceMultiplier != records.LegacyGraceOverride {
		t.Fatalf("grace_multiplier = %f, want %f", mental.GraceMultiplier, records.LegacyGraceOverride)
	}
}

func testKey32() []byte {
	k := make([]byte, vault.KeySize)
	for i := range k {
		k[i] = byte(i + 1)
	}
	return k
}

func TestCheckMentalLoadWithKeyMentionsAnchorType(t *testing.T) {
	sub := newTestSubstrate(t, testKey32())
	anchor := records.EmotionalAnchor{Type: "grief", Intensity: 0.8, Active: true, Content: "private"}
	if err := sub.InsertShadowAnchor("grief", anchor); err != nil {
		t.Fatalf("InsertShadowAnchor: %v", err)
	}

	directive, ok, err := CheckMentalLoad(sub)
	if err != nil {
		t.Fatalf("CheckMentalLoad: %v", err)
	}
	if !ok {
		t.Fatal("expected a directive")
	}
	if !strings.Contains(directive, "grief") {
		t.Fatalf("directive %q does not mention grief", directive)
	}
	if strings.Contains(directive, "private") {
		t.Fatal("directive leaked anchor content")
	}
}

func TestCheckMentalLoadLockedReturnsNoDirective(t *testing.T) {
	sub := newTestSubstrate(t, nil)

	directive, ok, err := CheckMentalLoad(sub)
	if err != nil {
		t.Fatalf("CheckMentalLoad: %v", err)
	}
	if ok || directive != "" {
		t.Fatalf("expected no directive when locked, got (%q,%v)", directive, ok)
	}

	if err2 := sub.InsertShadowAnchor("grief", records.EmotionalAnchor{Type: "grief", Intensity: 0.9, Active: true}); err2 == nil {
		t.Fatal("expected InsertShadowAnchor to fail while locked")
	}
}
