package derive

import (
	"fmt"

	"github.com/sovereignkb/substrate/internal/records"
)

// PromptDirectives is the substrate's policy of what context to surface to
// an outer prompt builder — the concatenation template itself belongs to
// that collaborator, but deciding which directives apply given the
// current cross-layer state is this package's job.
type PromptDirectives struct {
	Empathetic           string
	PhysicalLoad         string
	CompassionateRouting string
	BiometricSummary     string
}

// BuildPromptDirectives assembles the directive set for mental, the
// current SomaState, and an optional compassionate-routing directive
// (from CheckMentalLoad). Fields are empty when their guarding condition
// does not hold.
func BuildPromptDirectives(mental records.MentalState, soma records.SomaState, routingDirective string) PromptDirectives {
	var d PromptDirectives
	if mental.NeedsEmpatheticTone() {
		d.Empathetic = records.EmpatheticSystemInstruction
	}
	if mental.HasPhysicalLoadAdjustment() {
		d.PhysicalLoad = records.PhysicalLoadSystemInstruction
	}
	d.CompassionateRouting = routingDirective
	d.BiometricSummary = fmt.Sprintf("sleep=%.1fh readiness=%.0f resting_hr=%.0f hrv=%.0f",
		soma.SleepHours, soma.ReadinessScore, soma.RestingHR, soma.HRV)
	return d
}
