package records

// Decided thresholds for the two flag predicates left unspecified by the
// data model (see DESIGN.md "Open Questions"): empathetic tone triggers
// once burnout risk crosses the majority-risk midpoint, and the physical
// load directive triggers as soon as any grace adjustment is in effect.
const (
	EmpatheticToneThreshold = 0.6
	BurnoutIncrement        = 0.15
	GraceOverride           = 1.6
	LegacyBurnoutIncrement  = 0.2
	LegacyGraceOverride     = 1.5
)

// EmpatheticSystemInstruction is the fixed directive surfaced to the
// prompt builder when NeedsEmpatheticTone holds.
const EmpatheticSystemInstruction = "Respond with extra warmth and patience; the user is carrying elevated burnout risk right now."

// PhysicalLoadSystemInstruction is the fixed directive surfaced to the
// prompt builder when HasPhysicalLoadAdjustment holds.
const PhysicalLoadSystemInstruction = "Favor lighter asks and flexible pacing; a physical-load grace adjustment is active."

// MentalState (Kardia) is the agent's current psychological baseline,
// before any cross-layer BioGate merge.
type MentalState struct {
	BurnoutRisk     float64 `json:"burnout_risk"`
	GraceMultiplier float64 `json:"grace_multiplier"`
}

// DefaultMentalState returns the zero-risk, no-grace baseline used when no
// record exists yet for an agent.
func DefaultMentalState() MentalState {
	return MentalState{BurnoutRisk: 0, GraceMultiplier: 1.0}
}

// Clamp restricts BurnoutRisk to [0,1] and GraceMultiplier to >= 1.0.
func (m *MentalState) Clamp() {
	m.BurnoutRisk = clamp01(m.BurnoutRisk)
	if m.GraceMultiplier < 1.0 {
		m.GraceMultiplier = 1.0
	}
}

// NeedsEmpatheticTone reports whether burnout risk has crossed the
// empathetic-tone threshold.
func (m MentalState) NeedsEmpatheticTone() bool {
	return m.BurnoutRisk >= EmpatheticToneThreshold
}

// HasPhysicalLoadAdjustment reports whether any grace override is active.
func (m MentalState) HasPhysicalLoadAdjustment() bool {
	return m.GraceMultiplier > 1.0
}
