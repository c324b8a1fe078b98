package records

// AgentMessage (Soma inbox) is a single inter-agent message.
type AgentMessage struct {
	ID          string         `json:"id"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Payload     map[string]any `json:"payload,omitempty"`
	TimestampMs int64          `json:"ts_ms"`
	IsProcessed bool           `json:"is_processed"`
}

// NewAgentMessage constructs an unprocessed message, matching the declared
// default of is_processed=false.
func NewAgentMessage(id, from, to string, payload map[string]any, tsMillis int64) AgentMessage {
	return AgentMessage{ID: id, From: from, To: to, Payload: payload, TimestampMs: tsMillis, IsProcessed: false}
}
