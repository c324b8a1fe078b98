// Package derive implements cross-layer derivation: effective mental
// state (Kardia ⊕ Soma) and compassionate routing (Shadow → prompt
// directive). Both are pure functions over a Substrate snapshot — no
// partition is ever mutated here.
package derive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/substrate"
)

// intensityThreshold is the compassionate-routing cutoff above which an
// active anchor contributes to the directive.
const intensityThreshold = 0.5

// EffectiveMentalState computes the agent's mental state after merging in
// physiological signal, per the BioGate v2 priority rule with legacy
// fallback:
//
//  1. base mental state (default if absent)
//  2. if soma.NeedsBioGateAdjustment(): burnout_risk += BurnoutIncrement
//     (clamped), grace_multiplier = GraceOverride
//  3. else if bio.PoorSleep(): burnout_risk += LegacyBurnoutIncrement
//     (clamped), grace_multiplier = LegacyGraceOverride
//  4. clamp all fields and return
func EffectiveMentalState(sub *substrate.Substrate) (records.MentalState, error) {
	base, err := sub.GetMentalState()
	if err != nil {
		return records.MentalState{}, fmt.Errorf("derive: load mental state: %w", err)
	}
	soma, err := sub.GetSomaState()
	if err != nil {
		return records.MentalState{}, fmt.Errorf("derive: load soma state: %w", err)
	}

	switch {
	case soma.NeedsBioGateAdjustment():
		base.BurnoutRisk += records.BurnoutIncrement
		base.GraceMultiplier = records.GraceOverride
	default:
		bio, err := sub.GetBiometricState()
		if err != nil {
			return records.MentalState{}, fmt.Errorf("derive: load biometric state: %w", err)
		}
		if bio.PoorSleep() {
			base.BurnoutRisk += records.LegacyBurnoutIncrement
			base.GraceMultiplier = records.LegacyGraceOverride
		}
	}

	base.Clamp()
	return base, nil
}

// BioGateActive reports whether the current SomaState would trigger the
// priority BioGate rule — used by the Sovereign Snapshot so its
// bio_gate_active flag is derived from the same read as the rest of the
// snapshot.
func BioGateActive(soma records.SomaState) bool {
	return soma.NeedsBioGateAdjustment()
}

// CheckMentalLoad implements compassionate routing: it scans active
// Shadow anchors, finds the maximum intensity, and if it exceeds
// intensityThreshold returns a directive string naming the set of anchor
// types that cross the threshold. When the vault is locked, or when no
// anchor crosses the threshold, it returns ("", false) — never an error —
// because the Shadow contribution is opportunistic. Anchor content is
// never included in the directive.
func CheckMentalLoad(sub *substrate.Substrate) (directive string, ok bool, err error) {
	anchors, err := sub.GetActiveShadowAnchors()
	if err != nil {
		return "", false, fmt.Errorf("derive: scan shadow anchors: %w", err)
	}

	typesOverThreshold := make(map[string]struct{})
	for _, a := range anchors {
		if a.Intensity > intensityThreshold {
			typesOverThreshold[a.Type] = struct{}{}
		}
	}
	if len(typesOverThreshold) == 0 {
		return "", false, nil
	}

	names := make([]string, 0, len(typesOverThreshold))
	for t := range typesOverThreshold {
		names = append(names, t)
	}
	sort.Strings(names)
	return "elevated emotional load detected: " + strings.Join(names, ", "), true, nil
}
