package substrate

import (
	"strings"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// InsertShadowAnchor encrypts and writes an emotional anchor under label.
// Propagates store.ErrShadowLocked verbatim when no master key is
// available, per the Locked/CorruptOrWrongKey/not-found three-way split.
func (s *Substrate) InsertShadowAnchor(label string, anchor records.EmotionalAnchor) error {
	anchor.Clamp()
	raw, err := marshalOrWrap(label, anchor)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Shadow, store.AnchorKey(label), raw)
	return err
}

// GetShadowAnchor returns the raw encrypted bytes for label without
// decrypting them — tooling can dump the slot without unsealing it, per
// the encryption-boundary design note.
func (s *Substrate) GetShadowAnchor(label string) ([]byte, bool, error) {
	raw, err := s.Store.Get(store.Shadow, store.AnchorKey(label))
	if err != nil {
		return nil, false, err
	}
	return raw, raw != nil, nil
}

// GetShadowDecrypted returns the decrypted EmotionalAnchor stored at
// label. Returns store.ErrShadowLocked if the vault has no key, or
// store.ErrCorruptOrWrongKey if decryption fails.
func (s *Substrate) GetShadowDecrypted(label string) (records.EmotionalAnchor, bool, error) {
	raw, ok, err := s.GetShadowAnchor(label)
	if err != nil {
		return records.EmotionalAnchor{}, false, err
	}
	if !ok {
		if !s.Store.IsShadowUnlocked() {
			return records.EmotionalAnchor{}, false, store.ErrShadowLocked
		}
		return records.EmotionalAnchor{}, false, nil
	}
	plain, err := s.decryptShadowValue(raw)
	if err != nil {
		return records.EmotionalAnchor{}, false, err
	}
	var anchor records.EmotionalAnchor
	if err := unmarshalOrWrap(label, plain, &anchor); err != nil {
		return records.EmotionalAnchor{}, false, err
	}
	return anchor, true, nil
}

// GetActiveShadowAnchors scans every anchor, decrypts each, and returns
// those with Active set. When the vault is locked this returns an empty
// slice and nil error — the Shadow contribution is opportunistic, never a
// hard dependency for callers that merely want "what's active right now".
func (s *Substrate) GetActiveShadowAnchors() ([]records.EmotionalAnchor, error) {
	if !s.Store.IsShadowUnlocked() {
		return nil, nil
	}
	kvs, err := s.Store.ScanKV(store.Shadow)
	if err != nil {
		return nil, err
	}
	out := make([]records.EmotionalAnchor, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, "anchor/") {
			continue
		}
		plain, err := s.decryptShadowValue(kv.Value)
		if err != nil {
			continue
		}
		var anchor records.EmotionalAnchor
		if err := unmarshalOrWrap(kv.Key, plain, &anchor); err != nil {
			continue
		}
		if anchor.Active {
			out = append(out, anchor)
		}
	}
	return out, nil
}

func (s *Substrate) decryptShadowValue(raw []byte) ([]byte, error) {
	return s.Store.DecryptShadow(raw)
}
