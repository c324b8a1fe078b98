package substrate

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// SetBiometricState persists the legacy BiometricState reading.
func (s *Substrate) SetBiometricState(b records.BiometricState) error {
	raw, err := marshalOrWrap(store.BiometricKey, b)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Soma, store.BiometricKey, raw)
	return err
}

// GetBiometricState retrieves the legacy BiometricState reading,
// defaulting to a neutral reading if none has been recorded.
func (s *Substrate) GetBiometricState() (records.BiometricState, error) {
	raw, err := s.Store.Get(store.Soma, store.BiometricKey)
	if err != nil {
		return records.BiometricState{}, err
	}
	if raw == nil {
		return records.DefaultBiometricState(), nil
	}
	var b records.BiometricState
	if err := unmarshalOrWrap(store.BiometricKey, raw, &b); err != nil {
		return records.BiometricState{}, err
	}
	return b, nil
}

// SetSomaState persists the current SomaState reading, clamping into
// declared ranges.
func (s *Substrate) SetSomaState(st records.SomaState) error {
	st.Clamp()
	raw, err := marshalOrWrap(store.SomaStateKey, st)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Soma, store.SomaStateKey, raw)
	return err
}

// GetSomaState retrieves the current SomaState reading, defaulting to a
// neutral reading if none has been recorded.
func (s *Substrate) GetSomaState() (records.SomaState, error) {
	raw, err := s.Store.Get(store.Soma, store.SomaStateKey)
	if err != nil {
		return records.SomaState{}, err
	}
	if raw == nil {
		return records.DefaultSomaState(), nil
	}
	var st records.SomaState
	if err := unmarshalOrWrap(store.SomaStateKey, raw, &st); err != nil {
		return records.SomaState{}, err
	}
	return st, nil
}

// PushAgentMessage enqueues a message from "from" to "to" in to's Soma
// inbox. id and timestamp are assigned at insertion; is_processed starts
// false. The uuid suffix in the key guarantees uniqueness even for
// messages enqueued within the same millisecond.
func (s *Substrate) PushAgentMessage(from, to string, payload map[string]any) (records.AgentMessage, error) {
	ts := nowMillis()
	msg := records.NewAgentMessage(uuid.NewString(), from, to, payload, ts)
	key := store.InboxKey(to, ts)
	raw, err := marshalOrWrap(key, msg)
	if err != nil {
		return records.AgentMessage{}, err
	}
	if _, err := s.Store.Insert(store.Soma, key, raw); err != nil {
		return records.AgentMessage{}, err
	}
	return msg, nil
}

// KeyedMessage pairs a stored message with its key, so callers can ACK by
// rewriting the same key with is_processed=true.
type KeyedMessage struct {
	Key     string
	Message records.AgentMessage
}

// GetMessagesWithKeys returns up to limit inbox messages for agent as
// (key,message) pairs, newest first.
func (s *Substrate) GetMessagesWithKeys(agent string, limit int) ([]KeyedMessage, error) {
	prefix := "inbox/" + store.Slugify(agent) + "/"
	kvs, err := s.Store.ScanKV(store.Soma)
	if err != nil {
		return nil, err
	}
	out := make([]KeyedMessage, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, prefix) {
			continue
		}
		var msg records.AgentMessage
		if err := unmarshalOrWrap(kv.Key, kv.Value, &msg); err != nil {
			continue
		}
		out = append(out, KeyedMessage{Key: kv.Key, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Message.TimestampMs > out[j].Message.TimestampMs })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AckMessage marks the message stored at key as processed.
func (s *Substrate) AckMessage(key string) error {
	raw, err := s.Store.Get(store.Soma, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	var msg records.AgentMessage
	if err := unmarshalOrWrap(key, raw, &msg); err != nil {
		return err
	}
	msg.IsProcessed = true
	out, err := marshalOrWrap(key, msg)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Soma, key, out)
	return err
}
