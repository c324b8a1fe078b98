package records

// EventRecord (Chronos) captures a single episodic event.
type EventRecord struct {
	TimestampMs int64  `json:"ts_ms"`
	Source      string `json:"source"`
	SkillName   string `json:"skill_name,omitempty"`
	Reflection  string `json:"reflection"`
	Outcome     string `json:"outcome,omitempty"`
}
