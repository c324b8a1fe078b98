package substrate

import (
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// PutIdentity stores a KbRecord describing vision/identity content at its
// own id under Pneuma.
func (s *Substrate) PutIdentity(rec records.KbRecord) error {
	raw, err := marshalOrWrap(rec.ID, rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Pneuma, "identity/"+rec.ID, raw)
	return err
}

// GetIdentity retrieves a previously stored identity record by id.
func (s *Substrate) GetIdentity(id string) (records.KbRecord, bool, error) {
	key := "identity/" + id
	raw, err := s.Store.Get(store.Pneuma, key)
	if err != nil {
		return records.KbRecord{}, false, err
	}
	if raw == nil {
		return records.KbRecord{}, false, nil
	}
	var rec records.KbRecord
	if err := unmarshalOrWrap(key, raw, &rec); err != nil {
		return records.KbRecord{}, false, err
	}
	return rec, true, nil
}
