package substrate

import (
	"fmt"

	"github.com/sovereignkb/substrate/internal/audit"
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// SetDefaultPolicy installs the active safety PolicyRecord at policy/default.
func (s *Substrate) SetDefaultPolicy(rec records.PolicyRecord) error {
	raw, err := marshalOrWrap(store.PolicyKey, rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Ethos, store.PolicyKey, raw)
	return err
}

// GetDefaultPolicy retrieves the active safety policy, if any.
func (s *Substrate) GetDefaultPolicy() (records.PolicyRecord, bool, error) {
	raw, err := s.Store.Get(store.Ethos, store.PolicyKey)
	if err != nil {
		return records.PolicyRecord{}, false, err
	}
	if raw == nil {
		return records.PolicyRecord{}, false, nil
	}
	var rec records.PolicyRecord
	if err := unmarshalOrWrap(store.PolicyKey, raw, &rec); err != nil {
		return records.PolicyRecord{}, false, err
	}
	return rec, true, nil
}

// Allows checks scannedText against the currently installed default
// policy. An absent policy allows everything (nothing to enforce yet). If
// an audit.Trail is attached (SetAuditTrail), the decision is recorded
// into it regardless of outcome.
func (s *Substrate) Allows(skillName, scannedText string) (records.PolicyResult, error) {
	policy, ok, err := s.GetDefaultPolicy()
	if err != nil {
		return records.PolicyResult{}, err
	}
	result := records.PolicyResult{Pass: true}
	if ok {
		result = policy.Allows(skillName, scannedText)
	}
	if s.Audit != nil {
		score := 0.0
		if !result.Pass {
			score = 1.0
		}
		if _, err := s.Audit.Record(audit.KindPolicyDecision, skillName, summaryFor(result), score, nil); err != nil {
			return records.PolicyResult{}, fmt.Errorf("substrate: record audit decision: %w", err)
		}
	}
	return result, nil
}

func summaryFor(r records.PolicyResult) string {
	if r.Pass {
		return "pass"
	}
	return "fail: " + r.Reason
}

// SetCurrentEthos installs the active philosophical lens at ethos/current.
func (s *Substrate) SetCurrentEthos(p records.EthosPolicy) error {
	raw, err := marshalOrWrap(store.EthosCurrentKey, p)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Ethos, store.EthosCurrentKey, raw)
	return err
}

// GetCurrentEthos retrieves the active philosophical lens, if any.
func (s *Substrate) GetCurrentEthos() (records.EthosPolicy, bool, error) {
	raw, err := s.Store.Get(store.Ethos, store.EthosCurrentKey)
	if err != nil {
		return records.EthosPolicy{}, false, err
	}
	if raw == nil {
		return records.EthosPolicy{}, false, nil
	}
	var p records.EthosPolicy
	if err := unmarshalOrWrap(store.EthosCurrentKey, raw, &p); err != nil {
		return records.EthosPolicy{}, false, err
	}
	return p, true, nil
}
