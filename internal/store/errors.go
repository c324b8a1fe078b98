// Package store — errors.go
//
// Error kinds for the partitioned store: sentinel errors checked with
// errors.Is, wrapped with fmt.Errorf("...: %w", err).
package store

import "errors"

var (
	// ErrShadowLocked is returned by any write/read against partition 9
	// when no master key is available. Distinct from "not found".
	ErrShadowLocked = errors.New("store: shadow partition is locked (no master key)")

	// ErrCorruptOrWrongKey is returned when decrypting partition 9 data
	// fails its authentication check: wrong key or tampered ciphertext.
	// Never conflated with "not found".
	ErrCorruptOrWrongKey = errors.New("store: shadow decrypt failed (corrupt data or wrong key)")

	// ErrInvalidSlot names the out-of-range slot condition (a slot outside
	// [1,9]). No function in this package returns it: an out-of-range slot
	// is clamped to slot 1 for the underlying bucket lookup (see
	// BucketName), and any caller hitting that path has a bug.
	ErrInvalidSlot = errors.New("store: slot id out of range [1,9]")
)
