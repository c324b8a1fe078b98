package substrate

import (
	"sort"
	"strings"
	"time"

	"github.com/sovereignkb/substrate/internal/calc"
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// SetRelation upserts owner's relation to rec.TargetID, clamping trust
// score into [0,1] before writing.
func (s *Substrate) SetRelation(owner string, rec records.RelationRecord) error {
	rec.ClampTrust()
	key := store.RelationKey(owner, rec.TargetID)
	raw, err := marshalOrWrap(key, rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Kardia, key, raw)
	return err
}

// GetRelation retrieves owner's relation to target, if any.
func (s *Substrate) GetRelation(owner, target string) (records.RelationRecord, bool, error) {
	key := store.RelationKey(owner, target)
	raw, err := s.Store.Get(store.Kardia, key)
	if err != nil {
		return records.RelationRecord{}, false, err
	}
	if raw == nil {
		return records.RelationRecord{}, false, nil
	}
	var rec records.RelationRecord
	if err := unmarshalOrWrap(key, raw, &rec); err != nil {
		return records.RelationRecord{}, false, err
	}
	return rec, true, nil
}

// AdjustTrust is an alternative to SetRelation: it smooths a
// new trust signal against the stored trust score with an EWMA instead of
// overwriting it outright, so a single noisy interaction does not swing
// the relationship's trust score as hard as a sustained pattern would.
// alpha follows the same convention as internal/calc.Accumulator.
func (s *Substrate) AdjustTrust(owner, target string, signal, alpha float64, updatedMs int64) (records.RelationRecord, error) {
	rec, ok, err := s.GetRelation(owner, target)
	if err != nil {
		return records.RelationRecord{}, err
	}
	if !ok {
		rec = records.NewRelationRecord(target, 0.5, "", "", updatedMs)
	}
	acc := calc.NewAccumulator(alpha, rec.TrustScore)
	rec.TrustScore = acc.Update(signal)
	rec.ClampTrust()
	rec.LastUpdatedMs = updatedMs
	if err := s.SetRelation(owner, rec); err != nil {
		return records.RelationRecord{}, err
	}
	return rec, nil
}

// UpsertPerson stores or updates a known person's record; Slug is derived
// from Name.
func (s *Substrate) UpsertPerson(rec records.PersonRecord) error {
	rec.Slug = store.Slugify(rec.Name)
	key := store.PersonKey(rec.Name)
	raw, err := marshalOrWrap(key, rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Kardia, key, raw)
	return err
}

// ListPeople scans partition 7 filtered by "people/" prefix, sorted by
// name ascending.
func (s *Substrate) ListPeople() ([]records.PersonRecord, error) {
	kvs, err := s.Store.ScanKV(store.Kardia)
	if err != nil {
		return nil, err
	}
	out := make([]records.PersonRecord, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, "people/") {
			continue
		}
		var p records.PersonRecord
		if err := unmarshalOrWrap(kv.Key, kv.Value, &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetMentalState persists agent's baseline MentalState.
func (s *Substrate) SetMentalState(m records.MentalState) error {
	m.Clamp()
	raw, err := marshalOrWrap(store.MentalStateKey, m)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Kardia, store.MentalStateKey, raw)
	return err
}

// GetMentalState retrieves the baseline MentalState, defaulting to the
// zero-risk baseline if absent.
func (s *Substrate) GetMentalState() (records.MentalState, error) {
	raw, err := s.Store.Get(store.Kardia, store.MentalStateKey)
	if err != nil {
		return records.MentalState{}, err
	}
	if raw == nil {
		return records.DefaultMentalState(), nil
	}
	var m records.MentalState
	if err := unmarshalOrWrap(store.MentalStateKey, raw, &m); err != nil {
		return records.MentalState{}, err
	}
	return m, nil
}

// nowMillis returns the current wall-clock time in milliseconds since the
// epoch.
func nowMillis() int64 { return time.Now().UnixMilli() }
