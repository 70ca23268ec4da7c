package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countryRule(id, country string, percentage int) TargetingRule {
	return TargetingRule{
		ID:      id,
		Name:    "country " + country,
		Enabled: true,
		Conditions: []Condition{
			{Attribute: "country", Operator: OpEquals, Value: String(country)},
		},
		Percentage: percentage,
	}
}

func singleVersionFlag(enabled bool, rules ...TargetingRule) Flag {
	return Flag{
		Key:              "checkout-v2",
		Enabled:          enabled,
		CurrentVersionID: "v1",
		Versions: []Version{
			{ID: "v1", Number: 1, Rules: rules},
		},
	}
}

func TestEvaluate_DisabledFlagShortCircuits(t *testing.T) {
	flag := singleVersionFlag(false, countryRule("r1", "US", 100))
	result := Evaluate(flag, testContext(map[string]any{"country": "US"}))

	assert.False(t, result.Decision)
	assert.Equal(t, ReasonFlagDisabled, result.Reason)
	assert.Empty(t, result.MatchedRuleID)
	assert.Equal(t, 1, result.FlagVersion)
}

func TestEvaluate_RuleMatch(t *testing.T) {
	flag := singleVersionFlag(true, countryRule("r1", "US", 100))

	result := Evaluate(flag, testContext(map[string]any{"country": "US"}))
	assert.True(t, result.Decision)
	assert.Equal(t, ReasonRuleMatch, result.Reason)
	assert.Equal(t, "r1", result.MatchedRuleID)
	assert.Equal(t, 1, result.FlagVersion)
}

func TestEvaluate_DefaultFallback(t *testing.T) {
	// A flag whose rules all fail still defaults to its own enabled
	// state, not to false.
	flag := singleVersionFlag(true, countryRule("r1", "US", 100))

	result := Evaluate(flag, testContext(map[string]any{"country": "FR"}))
	assert.True(t, result.Decision)
	assert.Equal(t, ReasonDefault, result.Reason)
	assert.Empty(t, result.MatchedRuleID)
}

func TestEvaluate_FirstMatchWins(t *testing.T) {
	r1 := countryRule("r1", "US", 100)
	r2 := TargetingRule{ID: "r2", Enabled: true, Percentage: 100} // matches everything

	ec := testContext(map[string]any{"country": "US"})

	result := Evaluate(singleVersionFlag(true, r1, r2), ec)
	assert.True(t, result.Decision)
	assert.Equal(t, "r1", result.MatchedRuleID)

	// Swapping the order changes the matched rule but not the decision.
	swapped := Evaluate(singleVersionFlag(true, r2, r1), ec)
	assert.True(t, swapped.Decision)
	assert.Equal(t, "r2", swapped.MatchedRuleID)
}

func TestEvaluate_DisabledRuleSkipped(t *testing.T) {
	rule := countryRule("r1", "US", 100)
	rule.Enabled = false

	result := Evaluate(singleVersionFlag(true, rule), testContext(map[string]any{"country": "US"}))
	assert.Equal(t, ReasonDefault, result.Reason)
}

func TestEvaluate_ZeroPercentageNeverMatches(t *testing.T) {
	// Even with zero conditions: percentage 0 is the documented way to
	// park a rule.
	rule := TargetingRule{ID: "r1", Enabled: true, Percentage: 0}
	for _, identity := range []string{"a", "b", "c", ""} {
		ec := Context{IdentityKey: identity}
		result := Evaluate(singleVersionFlag(true, rule), ec)
		assert.Equal(t, ReasonDefault, result.Reason)
	}
}

func TestEvaluate_HundredPercentIgnoresIdentity(t *testing.T) {
	rule := countryRule("r1", "US", 100)
	ec := Context{Attributes: map[string]Value{"country": String("US")}}
	result := Evaluate(singleVersionFlag(true, rule), ec)
	assert.Equal(t, ReasonRuleMatch, result.Reason)
}

func TestEvaluate_NoVersions(t *testing.T) {
	flag := Flag{Key: "bare", Enabled: true}
	result := Evaluate(flag, Context{})
	assert.True(t, result.Decision)
	assert.Equal(t, ReasonDefault, result.Reason)
	assert.Equal(t, 0, result.FlagVersion)
}

func TestEvaluate_DanglingVersionFallsBack(t *testing.T) {
	flag := Flag{
		Key:              "checkout-v2",
		Enabled:          true,
		CurrentVersionID: "missing",
		Versions: []Version{
			{ID: "v1", Number: 1, Rules: []TargetingRule{countryRule("r1", "US", 100)}},
			{ID: "v2", Number: 2, Rules: []TargetingRule{countryRule("r2", "FR", 100)}},
		},
	}

	result := Evaluate(flag, testContext(map[string]any{"country": "FR"}))
	assert.True(t, result.VersionFallback)
	assert.Equal(t, 2, result.FlagVersion)
	assert.Equal(t, "r2", result.MatchedRuleID)
}

func TestEvaluate_EmptyCurrentVersionIsNotAnAnomaly(t *testing.T) {
	flag := Flag{
		Key:     "checkout-v2",
		Enabled: true,
		Versions: []Version{
			{ID: "v1", Number: 1},
		},
	}
	result := Evaluate(flag, Context{})
	assert.False(t, result.VersionFallback)
	assert.Equal(t, 1, result.FlagVersion)
}

func TestEvaluate_CountryTargeting(t *testing.T) {
	flag := singleVersionFlag(true, countryRule("r1", "US", 100))

	us := Evaluate(flag, testContext(map[string]any{"country": "US"}))
	assert.True(t, us.Decision)
	assert.Equal(t, ReasonRuleMatch, us.Reason)

	fr := Evaluate(flag, testContext(map[string]any{"country": "FR"}))
	assert.True(t, fr.Decision)
	assert.Equal(t, ReasonDefault, fr.Reason)

	age := Condition{Attribute: "age", Operator: OpGreaterThan, Value: Number(18)}
	assert.False(t, age.Evaluate(testContext(map[string]any{"age": "twenty"})))
}

func TestTargetingRule_Validate(t *testing.T) {
	valid := countryRule("r1", "US", 50)
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = " "
	assert.ErrorIs(t, noID.Validate(), ErrRuleIDRequired)

	over := valid
	over.Percentage = 101
	assert.ErrorIs(t, over.Validate(), ErrPercentageRange)

	under := valid
	under.Percentage = -1
	assert.ErrorIs(t, under.Validate(), ErrPercentageRange)

	badOp := valid
	badOp.Conditions = []Condition{{Attribute: "country", Operator: "LIKE", Value: String("US")}}
	assert.ErrorIs(t, badOp.Validate(), ErrUnknownOperator)

	noValue := valid
	noValue.Conditions = []Condition{{Attribute: "country", Operator: OpEquals}}
	assert.ErrorIs(t, noValue.Validate(), ErrValueRequired)

	scalarIn := valid
	scalarIn.Conditions = []Condition{{Attribute: "country", Operator: OpIn, Value: String("US")}}
	assert.ErrorIs(t, scalarIn.Validate(), ErrListValueRequired)

	nullOp := valid
	nullOp.Conditions = []Condition{{Attribute: "email", Operator: OpIsNull}}
	assert.NoError(t, nullOp.Validate())
}
