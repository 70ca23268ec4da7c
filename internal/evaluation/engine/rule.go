package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRuleIDRequired    = errors.New("rule_id_required")
	ErrPercentageRange   = errors.New("percentage_out_of_range")
	ErrUnknownOperator   = errors.New("unknown_operator")
	ErrAttributeRequired = errors.New("attribute_required")
	ErrValueRequired     = errors.New("value_required")
	ErrListValueRequired = errors.New("list_value_required")
)

// TargetingRule is a conditional override of a flag's default state.
// Conditions are a conjunction; the percentage gates matching contexts
// through deterministic bucketing. A disabled rule is skipped entirely.
type TargetingRule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	Conditions []Condition `json:"conditions"`
	Percentage int         `json:"percentage"`
	Enabled    bool        `json:"enabled"`
}

// Matches evaluates the rule against a context. Conditions short-circuit
// on the first failure; the rollout gate runs only after every condition
// passed. percentage == 0 never matches, even with zero conditions, which
// is the supported way to park a rule without deleting it.
func (r TargetingRule) Matches(flagKey string, ec Context) bool {
	if !r.Enabled {
		return false
	}
	for _, cond := range r.Conditions {
		if !cond.Evaluate(ec) {
			return false
		}
	}
	return InRollout(flagKey, r.ID, ec.IdentityKey, r.Percentage)
}

// Validate checks the invariants a rule must satisfy before it can be
// published into a version. Evaluation itself never validates: a bad rule
// that slipped through degrades to non-matching conditions instead.
func (r TargetingRule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrRuleIDRequired
	}
	if r.Percentage < 0 || r.Percentage > 100 {
		return fmt.Errorf("rule %s: %w", r.ID, ErrPercentageRange)
	}
	for i, cond := range r.Conditions {
		if strings.TrimSpace(cond.Attribute) == "" {
			return fmt.Errorf("rule %s condition %d: %w", r.ID, i, ErrAttributeRequired)
		}
		if !cond.Operator.Valid() {
			return fmt.Errorf("rule %s condition %d: %w", r.ID, i, ErrUnknownOperator)
		}
		if cond.Operator.NeedsValue() && cond.Value.Kind == KindAbsent {
			return fmt.Errorf("rule %s condition %d: %w", r.ID, i, ErrValueRequired)
		}
		if cond.Operator.NeedsListValue() &&
			cond.Value.Kind != KindStringList && cond.Value.Kind != KindNumberList {
			return fmt.Errorf("rule %s condition %d: %w", r.ID, i, ErrListValueRequired)
		}
	}
	return nil
}
