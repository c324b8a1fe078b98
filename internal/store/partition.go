// Package store — partition.go
//
// Partition identity: the nine fixed, numbered slots of the Sovereign
// Knowledge Substrate. Slot numbering, bucket names, and labels are part
// of the external contract and must never change.
package store

// Slot identifies one of the nine fixed partitions. Numbering is part of
// the external contract and must never change.
type Slot uint8

const (
	Pneuma  Slot = 1 // Vision / Identity
	Oikos   Slot = 2 // Context / Workspace / Tasks
	Logos   Slot = 3 // Distilled Knowledge
	Chronos Slot = 4 // Temporal / Episodic
	Techne  Slot = 5 // Skill manifests
	Ethos   Slot = 6 // Safety + philosophy
	Kardia  Slot = 7 // Relational + mental state
	Soma    Slot = 8 // Biometric + agent inbox
	Shadow  Slot = 9 // Emotional anchors (encrypted)
)

// bucketNames holds the on-disk bucket name for each slot, index 0 unused.
var bucketNames = [10]string{
	0: "",
	1: "kb1_identity",
	2: "kb2_oikos",
	3: "kb3_logos",
	4: "kb4_chronos",
	5: "kb5_techne",
	6: "kb6_ethos",
	7: "kb7_kardia",
	8: "kb8_buffer",
	9: "kb9_shadow",
}

// labels holds the human-readable label for each slot, index 0 unused.
var labels = [10]string{
	0: "",
	1: "Pneuma (Vision/Identity)",
	2: "Oikos (Context/Workspace/Tasks)",
	3: "Logos (Distilled Knowledge)",
	4: "Chronos (Temporal/Episodic)",
	5: "Techne (Skill manifests)",
	6: "Ethos (Safety+philosophy)",
	7: "Kardia (Relational+mental state)",
	8: "Soma (Biometric+agent inbox)",
	9: "Shadow (Emotional anchors)",
}

// AllSlots returns all nine slots in ascending order.
func AllSlots() [9]Slot {
	return [9]Slot{Pneuma, Oikos, Logos, Chronos, Techne, Ethos, Kardia, Soma, Shadow}
}

// Valid reports whether s is one of the nine defined slots.
func (s Slot) Valid() bool {
	return s >= 1 && s <= 9
}

// Label returns the human-readable label for s, or "Unknown" if s is out
// of range.
func (s Slot) Label() string {
	if !s.Valid() {
		return "Unknown"
	}
	return labels[s]
}

// BucketName returns the on-disk bucket name for s. Out-of-range slots
// clamp to slot 1's bucket for the internal lookup; callers outside this
// package must treat an out-of-range slot as a programming error, never
// rely on the clamp.
func (s Slot) BucketName() string {
	if !s.Valid() {
		return bucketNames[1]
	}
	return bucketNames[s]
}

// Encrypted reports whether s is the Shadow partition.
func (s Slot) Encrypted() bool {
	return s == Shadow
}
