package records

import "strings"

// PolicyRecord (Ethos/default) enumerates forbidden actions and sensitive
// keywords checked by Allows.
type PolicyRecord struct {
	ForbiddenActions  []string `json:"forbidden_actions,omitempty"`
	SensitiveKeywords []string `json:"sensitive_keywords,omitempty"`
	ApprovalRequired  bool     `json:"approval_required"`
}

// NewPolicyRecord returns a PolicyRecord with ApprovalRequired defaulted to
// true, matching the declared default in the data model.
func NewPolicyRecord(forbiddenActions, sensitiveKeywords []string) PolicyRecord {
	return PolicyRecord{
		ForbiddenActions:  forbiddenActions,
		SensitiveKeywords: sensitiveKeywords,
		ApprovalRequired:  true,
	}
}

// PolicyResult is the outcome of Allows: either Pass or Fail with a reason.
type PolicyResult struct {
	Pass   bool
	Reason string
}

// Allows checks scannedText (and skillName) against the policy's forbidden
// actions and sensitive keywords. Matching is case-insensitive substring
// search. A forbidden-action match always fails. A sensitive-keyword match
// fails only when ApprovalRequired is set.
func (p PolicyRecord) Allows(skillName, scannedText string) PolicyResult {
	lowerText := strings.ToLower(scannedText)
	lowerSkill := strings.ToLower(skillName)

	for _, forbidden := range p.ForbiddenActions {
		f := strings.ToLower(forbidden)
		if f == "" {
			continue
		}
		if strings.Contains(lowerSkill, f) || strings.Contains(lowerText, f) {
			return PolicyResult{Pass: false, Reason: "forbidden action: " + forbidden}
		}
	}

	for _, kw := range p.SensitiveKeywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		if strings.Contains(lowerText, k) {
			if p.ApprovalRequired {
				return PolicyResult{Pass: false, Reason: "sensitive keyword requires approval: " + kw}
			}
		}
	}

	return PolicyResult{Pass: true}
}
