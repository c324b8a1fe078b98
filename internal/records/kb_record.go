package records

// KbRecord is the generic wrapper used by Pneuma/Logos for free-form
// knowledge entries: unique id, content, free-form metadata, and an
// optional embedding vector.
type KbRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float64      `json:"embedding,omitempty"`
	CreatedAt int64          `json:"created_at_ms"`
}

// NewKbRecord constructs a KbRecord with the given id/content, timestamped
// at createdAtMs.
func NewKbRecord(id, content string, metadata map[string]any, createdAtMs int64) KbRecord {
	return KbRecord{ID: id, Content: content, Metadata: metadata, CreatedAt: createdAtMs}
}
