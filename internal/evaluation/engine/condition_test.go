package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(attrs map[string]any) Context {
	return NewContext("user-1", attrs)
}

func TestCondition_Equals(t *testing.T) {
	tests := []struct {
		name      string
		attribute string
		value     Value
		attrs     map[string]any
		want      bool
	}{
		{"string match", "country", String("US"), map[string]any{"country": "US"}, true},
		{"string mismatch", "country", String("US"), map[string]any{"country": "FR"}, false},
		{"case sensitive", "country", String("US"), map[string]any{"country": "us"}, false},
		{"number match", "age", Number(18), map[string]any{"age": 18}, true},
		{"numeric string coerces", "age", Number(18), map[string]any{"age": "18"}, true},
		{"number to string coerces", "count", String("5"), map[string]any{"count": 5}, true},
		{"bool match", "beta", Boolean(true), map[string]any{"beta": true}, true},
		{"bool string coerces", "beta", Boolean(true), map[string]any{"beta": "true"}, true},
		{"missing attribute fails", "country", String("US"), map[string]any{}, false},
		{"list match", "tags", StringList([]string{"a", "b"}), map[string]any{"tags": []any{"a", "b"}}, true},
		{"list order matters", "tags", StringList([]string{"b", "a"}), map[string]any{"tags": []any{"a", "b"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cond := Condition{Attribute: tc.attribute, Operator: OpEquals, Value: tc.value}
			assert.Equal(t, tc.want, cond.Evaluate(testContext(tc.attrs)))
		})
	}
}

func TestCondition_NotEquals(t *testing.T) {
	cond := Condition{Attribute: "country", Operator: OpNotEquals, Value: String("US")}
	assert.True(t, cond.Evaluate(testContext(map[string]any{"country": "FR"})))
	assert.False(t, cond.Evaluate(testContext(map[string]any{"country": "US"})))
	// Missing attribute is an evaluation failure, not a successful negation.
	assert.False(t, cond.Evaluate(testContext(nil)))

	// So is a mistyped one: a non-coercible attribute fails the condition
	// rather than passing through the negation.
	numeric := Condition{Attribute: "age", Operator: OpNotEquals, Value: Number(18)}
	assert.False(t, numeric.Evaluate(testContext(map[string]any{"age": "twenty"})))
	assert.True(t, numeric.Evaluate(testContext(map[string]any{"age": 21})))

	list := Condition{Attribute: "tags", Operator: OpNotEquals, Value: StringList([]string{"a"})}
	assert.False(t, list.Evaluate(testContext(map[string]any{"tags": "a"})))
}

func TestCondition_Contains(t *testing.T) {
	substr := Condition{Attribute: "email", Operator: OpContains, Value: String("@acme.")}
	assert.True(t, substr.Evaluate(testContext(map[string]any{"email": "jo@acme.io"})))
	assert.False(t, substr.Evaluate(testContext(map[string]any{"email": "jo@other.io"})))

	membership := Condition{Attribute: "groups", Operator: OpContains, Value: String("beta")}
	assert.True(t, membership.Evaluate(testContext(map[string]any{"groups": []any{"alpha", "beta"}})))
	assert.False(t, membership.Evaluate(testContext(map[string]any{"groups": []any{"alpha"}})))

	numbers := Condition{Attribute: "plans", Operator: OpContains, Value: Number(2)}
	assert.True(t, numbers.Evaluate(testContext(map[string]any{"plans": []any{1, 2, 3}})))

	notContains := Condition{Attribute: "groups", Operator: OpNotContains, Value: String("beta")}
	assert.True(t, notContains.Evaluate(testContext(map[string]any{"groups": []any{"alpha"}})))
	assert.False(t, notContains.Evaluate(testContext(map[string]any{"groups": []any{"beta"}})))
	// Mistyped attribute fails rather than passing through the negation.
	assert.False(t, notContains.Evaluate(testContext(map[string]any{"groups": 42})))
	assert.False(t, notContains.Evaluate(testContext(nil)))
}

func TestCondition_PrefixSuffix(t *testing.T) {
	starts := Condition{Attribute: "host", Operator: OpStartsWith, Value: String("eu-")}
	assert.True(t, starts.Evaluate(testContext(map[string]any{"host": "eu-west-1"})))
	assert.False(t, starts.Evaluate(testContext(map[string]any{"host": "us-east-1"})))
	// Non-string attribute fails, it does not error.
	assert.False(t, starts.Evaluate(testContext(map[string]any{"host": 42})))

	ends := Condition{Attribute: "email", Operator: OpEndsWith, Value: String(".io")}
	assert.True(t, ends.Evaluate(testContext(map[string]any{"email": "a@b.io"})))
	assert.False(t, ends.Evaluate(testContext(map[string]any{"email": "a@b.com"})))
}

func TestCondition_NumericComparisons(t *testing.T) {
	tests := []struct {
		op   Operator
		attr any
		want bool
	}{
		{OpGreaterThan, 21, true},
		{OpGreaterThan, 18, false},
		{OpGreaterThan, "21", true},
		{OpGreaterThan, "twenty", false}, // non-numeric fails, never errors
		{OpLessThan, 17, true},
		{OpLessThan, 18, false},
		{OpGreaterThanOrEquals, 18, true},
		{OpGreaterThanOrEquals, 17.9, false},
		{OpLessThanOrEquals, 18, true},
		{OpLessThanOrEquals, 18.1, false},
	}
	for _, tc := range tests {
		cond := Condition{Attribute: "age", Operator: tc.op, Value: Number(18)}
		got := cond.Evaluate(testContext(map[string]any{"age": tc.attr}))
		assert.Equalf(t, tc.want, got, "%s vs %v", tc.op, tc.attr)
	}
}

func TestCondition_InNotIn(t *testing.T) {
	in := Condition{Attribute: "country", Operator: OpIn, Value: StringList([]string{"US", "CA"})}
	assert.True(t, in.Evaluate(testContext(map[string]any{"country": "CA"})))
	assert.False(t, in.Evaluate(testContext(map[string]any{"country": "FR"})))
	assert.False(t, in.Evaluate(testContext(nil)))

	notIn := Condition{Attribute: "country", Operator: OpNotIn, Value: StringList([]string{"US", "CA"})}
	assert.True(t, notIn.Evaluate(testContext(map[string]any{"country": "FR"})))
	assert.False(t, notIn.Evaluate(testContext(map[string]any{"country": "US"})))
	assert.False(t, notIn.Evaluate(testContext(nil)))
	// A list-valued attribute cannot be a set member; the condition fails
	// instead of negating the failed membership test.
	assert.False(t, notIn.Evaluate(testContext(map[string]any{"country": []any{"FR"}})))

	numericNotIn := Condition{Attribute: "plan", Operator: OpNotIn, Value: NumberList([]float64{1, 2})}
	assert.True(t, numericNotIn.Evaluate(testContext(map[string]any{"plan": 3})))
	assert.False(t, numericNotIn.Evaluate(testContext(map[string]any{"plan": "premium"})))

	numberSet := Condition{Attribute: "plan", Operator: OpIn, Value: NumberList([]float64{1, 2})}
	assert.True(t, numberSet.Evaluate(testContext(map[string]any{"plan": 2})))

	scalarSet := Condition{Attribute: "country", Operator: OpIn, Value: String("US")}
	assert.True(t, scalarSet.Evaluate(testContext(map[string]any{"country": "US"})))
}

func TestCondition_NullAndEmpty(t *testing.T) {
	isNull := Condition{Attribute: "email", Operator: OpIsNull}
	assert.True(t, isNull.Evaluate(testContext(nil)))
	assert.False(t, isNull.Evaluate(testContext(map[string]any{"email": ""})))
	// Present counts, whatever the value.
	assert.False(t, isNull.Evaluate(testContext(map[string]any{"email": false})))

	isNotNull := Condition{Attribute: "email", Operator: OpIsNotNull}
	assert.False(t, isNotNull.Evaluate(testContext(nil)))
	assert.True(t, isNotNull.Evaluate(testContext(map[string]any{"email": 0})))

	isEmpty := Condition{Attribute: "tags", Operator: OpIsEmpty}
	assert.True(t, isEmpty.Evaluate(testContext(nil)))
	assert.True(t, isEmpty.Evaluate(testContext(map[string]any{"tags": ""})))
	assert.True(t, isEmpty.Evaluate(testContext(map[string]any{"tags": []any{}})))
	assert.False(t, isEmpty.Evaluate(testContext(map[string]any{"tags": []any{"a"}})))
	// Zero is a value, not emptiness.
	assert.False(t, isEmpty.Evaluate(testContext(map[string]any{"tags": 0})))

	isNotEmpty := Condition{Attribute: "tags", Operator: OpIsNotEmpty}
	assert.False(t, isNotEmpty.Evaluate(testContext(nil)))
	assert.False(t, isNotEmpty.Evaluate(testContext(map[string]any{"tags": ""})))
	assert.True(t, isNotEmpty.Evaluate(testContext(map[string]any{"tags": "a"})))
}

func TestCondition_UnknownOperatorFailsClosed(t *testing.T) {
	cond := Condition{Attribute: "country", Operator: Operator("MATCHES_REGEX"), Value: String(".*")}
	assert.False(t, cond.Evaluate(testContext(map[string]any{"country": "US"})))
}

func TestValue_JSONRoundTrip(t *testing.T) {
	cond := Condition{
		Attribute: "country",
		Operator:  OpIn,
		Value:     StringList([]string{"US", "CA"}),
	}
	raw, err := json.Marshal(cond)
	require.NoError(t, err)

	var decoded Condition
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, KindStringList, decoded.Value.Kind)
	assert.Equal(t, []string{"US", "CA"}, decoded.Value.StrList)

	// Stored form is the plain JSON list, not a tagged envelope.
	assert.JSONEq(t, `{"attribute":"country","operator":"IN","value":["US","CA"]}`, string(raw))
}

func TestCondition_OmittedValueIsAbsent(t *testing.T) {
	// When the JSON omits "value" entirely, UnmarshalJSON never runs and
	// the condition carries the zero Value. That zero must read as absent
	// so publish-time arity validation still fires.
	var rule TargetingRule
	raw := `{"id":"r1","enabled":true,"percentage":10,"conditions":[{"attribute":"country","operator":"EQUALS"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &rule))

	assert.Equal(t, KindAbsent, rule.Conditions[0].Value.Kind)
	assert.ErrorIs(t, rule.Validate(), ErrValueRequired)
	assert.False(t, rule.Conditions[0].Evaluate(testContext(map[string]any{"country": "US"})))
}

func TestValue_UnsupportedShapesBecomeAbsent(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"nested":"object"}`), &v))
	assert.Equal(t, KindAbsent, v.Kind)

	var mixed Value
	require.NoError(t, json.Unmarshal([]byte(`["a",1]`), &mixed))
	assert.Equal(t, KindAbsent, mixed.Kind)
}
