package engine

// Reason explains which path produced a decision.
type Reason string

const (
	ReasonFlagDisabled Reason = "FLAG_DISABLED"
	ReasonRuleMatch    Reason = "RULE_MATCH"
	ReasonDefault      Reason = "DEFAULT"
)

// Result is the structured outcome of one evaluation. One is produced for
// every call, including evaluations that fail closed, so the audit trail
// never has gaps.
type Result struct {
	FlagKey       string `json:"flag_key"`
	Decision      bool   `json:"decision"`
	Reason        Reason `json:"reason"`
	MatchedRuleID string `json:"matched_rule_id,omitempty"`
	// FlagVersion is the version number actually consulted; 0 when the
	// flag has no versions.
	FlagVersion int `json:"flag_version"`
	// VersionFallback marks that current_version_id was dangling and the
	// highest version was used instead. Callers log it at warning level.
	VersionFallback bool `json:"version_fallback,omitempty"`
}

// Evaluate decides whether the flag is enabled for the context. It is a
// pure function of the (flag snapshot, context) pair: no shared state, no
// I/O, safe to call from any number of goroutines concurrently.
//
// A disabled flag short-circuits. Otherwise rules of the active version
// run in stored order and the first match wins; if none match, the flag's
// own enabled state is the decision.
func Evaluate(f Flag, ec Context) Result {
	result := Result{FlagKey: f.Key}

	version, fallback := f.ActiveVersion()
	if version != nil {
		result.FlagVersion = version.Number
		result.VersionFallback = fallback
	}

	if !f.Enabled {
		result.Decision = false
		result.Reason = ReasonFlagDisabled
		return result
	}

	if version != nil {
		for _, rule := range version.Rules {
			if rule.Matches(f.Key, ec) {
				result.Decision = true
				result.Reason = ReasonRuleMatch
				result.MatchedRuleID = rule.ID
				return result
			}
		}
	}

	result.Decision = f.Enabled
	result.Reason = ReasonDefault
	return result
}
