// Package substrate is the typed record layer: one helper file per
// partition, each wrapping internal/store's raw byte API with
// construct/serialize/deserialize/insert/retrieve/list semantics for its
// domain objects.
//
// Every helper follows the same shape: JSON-marshal a small struct, Put it
// at a hand-built key, unmarshal on read. Serialization always goes
// through encoding/json, never a binary codec.
package substrate

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sovereignkb/substrate/internal/audit"
	"github.com/sovereignkb/substrate/internal/store"
)

// Substrate is the typed facade over a *store.Store.
type Substrate struct {
	Store *store.Store
	log   *zap.Logger

	// Audit is an optional hash-chained trail of Ethos policy decisions
	// (from Allows) and governor evaluation passes. Nil by default;
	// SetAuditTrail wires one up when governance auditing is wanted.
	Audit *audit.Trail
}

// New wraps s with the typed record helpers.
func New(s *store.Store, log *zap.Logger) *Substrate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Substrate{Store: s, log: log}
}

// SetAuditTrail attaches an audit.Trail that every subsequent Allows call
// records a Decision into.
func (s *Substrate) SetAuditTrail(t *audit.Trail) {
	s.Audit = t
}

// ErrSerialization wraps a JSON marshal/unmarshal failure for a typed
// helper, matching the Serialization error kind from the error-handling
// design: point-reads surface it, list/scan helpers skip the entry.
type ErrSerialization struct {
	Key string
	Err error
}

func (e *ErrSerialization) Error() string {
	return fmt.Sprintf("substrate: serialization failed for key %q: %v", e.Key, e.Err)
}

func (e *ErrSerialization) Unwrap() error { return e.Err }

func marshalOrWrap(key string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &ErrSerialization{Key: key, Err: err}
	}
	return b, nil
}

func unmarshalOrWrap(key string, raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &ErrSerialization{Key: key, Err: err}
	}
	return nil
}
