package records

// RelationRecord (Kardia) describes owner's relation to TargetID.
type RelationRecord struct {
	TargetID           string  `json:"target_id"`
	TrustScore         float64 `json:"trust_score"`
	CommunicationStyle string  `json:"communication_style,omitempty"`
	LastSentiment      string  `json:"last_sentiment,omitempty"`
	LastUpdatedMs      int64   `json:"last_updated_ms"`
}

// NewRelationRecord constructs a RelationRecord whose TrustScore is the
// given trustScore clamped to [0,1]. It applies no default of its own;
// AdjustTrust seeds a missing relation at 0.5 through it.
func NewRelationRecord(targetID string, trustScore float64, style, sentiment string, updatedMs int64) RelationRecord {
	return RelationRecord{
		TargetID:           targetID,
		TrustScore:         clamp01(trustScore),
		CommunicationStyle: style,
		LastSentiment:      sentiment,
		LastUpdatedMs:      updatedMs,
	}
}

// ClampTrust clamps TrustScore into [0,1] in place.
func (r *RelationRecord) ClampTrust() {
	r.TrustScore = clamp01(r.TrustScore)
}

// PromptContext renders a one-line prompt context string when sentiment or
// style is non-empty, per the substrate's prompt-context contract. Returns
// "" when there is nothing worth surfacing.
func (r RelationRecord) PromptContext() string {
	if r.LastSentiment == "" && r.CommunicationStyle == "" {
		return ""
	}
	ctx := "relation[" + r.TargetID + "]:"
	if r.CommunicationStyle != "" {
		ctx += " style=" + r.CommunicationStyle
	}
	if r.LastSentiment != "" {
		ctx += " sentiment=" + r.LastSentiment
	}
	return ctx
}
