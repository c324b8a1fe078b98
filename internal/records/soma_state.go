package records

// BiometricState is the legacy physiology signal, superseded by SomaState
// but retained for the legacy-fallback BioGate rule.
type BiometricState struct {
	SleepScore float64 `json:"sleep_score"`
}

// DefaultBiometricState returns a neutral reading used when no record
// exists yet, so an empty partition never reads as poor sleep.
func DefaultBiometricState() BiometricState {
	return BiometricState{SleepScore: 100}
}

// PoorSleep implements the legacy-fallback predicate: sleep_score < 60.
func (b BiometricState) PoorSleep() bool {
	return b.SleepScore < 60
}

// SomaState (Soma) is the current physiology reading used by the
// priority BioGate rule.
type SomaState struct {
	SleepHours     float64 `json:"sleep_hours"`
	ReadinessScore float64 `json:"readiness_score"`
	RestingHR      float64 `json:"resting_hr"`
	HRV            float64 `json:"hrv"`
}

// DefaultSomaState returns a neutral reading (full sleep, full readiness)
// used when no record exists yet.
func DefaultSomaState() SomaState {
	return SomaState{SleepHours: 8, ReadinessScore: 100}
}

// Clamp restricts ReadinessScore to [0,100] and SleepHours to a
// non-negative value.
func (s *SomaState) Clamp() {
	s.ReadinessScore = clampRange(s.ReadinessScore, 0, 100)
	if s.SleepHours < 0 {
		s.SleepHours = 0
	}
}

// NeedsBioGateAdjustment implements the priority BioGate predicate:
// readiness_score < 50 OR sleep_hours < 6.0.
func (s SomaState) NeedsBioGateAdjustment() bool {
	return s.ReadinessScore < 50 || s.SleepHours < 6.0
}
