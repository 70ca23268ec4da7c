package engine

import "strings"

// Operator enumerates the condition operators. The string values are the
// stored representation inside flag versions.
type Operator string

const (
	OpEquals              Operator = "EQUALS"
	OpNotEquals           Operator = "NOT_EQUALS"
	OpContains            Operator = "CONTAINS"
	OpNotContains         Operator = "NOT_CONTAINS"
	OpStartsWith          Operator = "STARTS_WITH"
	OpEndsWith            Operator = "ENDS_WITH"
	OpGreaterThan         Operator = "GREATER_THAN"
	OpLessThan            Operator = "LESS_THAN"
	OpGreaterThanOrEquals Operator = "GREATER_THAN_OR_EQUALS"
	OpLessThanOrEquals    Operator = "LESS_THAN_OR_EQUALS"
	OpIn                  Operator = "IN"
	OpNotIn               Operator = "NOT_IN"
	OpIsNull              Operator = "IS_NULL"
	OpIsNotNull           Operator = "IS_NOT_NULL"
	OpIsEmpty             Operator = "IS_EMPTY"
	OpIsNotEmpty          Operator = "IS_NOT_EMPTY"
)

var operators = map[Operator]struct{}{
	OpEquals: {}, OpNotEquals: {},
	OpContains: {}, OpNotContains: {},
	OpStartsWith: {}, OpEndsWith: {},
	OpGreaterThan: {}, OpLessThan: {},
	OpGreaterThanOrEquals: {}, OpLessThanOrEquals: {},
	OpIn: {}, OpNotIn: {},
	OpIsNull: {}, OpIsNotNull: {},
	OpIsEmpty: {}, OpIsNotEmpty: {},
}

func (op Operator) Valid() bool {
	_, ok := operators[op]
	return ok
}

// NeedsValue reports whether the operator compares against a condition
// value. The null/empty operators only inspect the attribute.
func (op Operator) NeedsValue() bool {
	switch op {
	case OpIsNull, OpIsNotNull, OpIsEmpty, OpIsNotEmpty:
		return false
	default:
		return true
	}
}

// NeedsListValue reports whether the condition value must be a list.
func (op Operator) NeedsListValue() bool {
	return op == OpIn || op == OpNotIn
}

// Condition is an atomic predicate over one context attribute.
type Condition struct {
	Attribute string   `json:"attribute"`
	Operator  Operator `json:"operator"`
	Value     Value    `json:"value,omitempty"`
}

// Evaluate applies the condition against the context. It never errors:
// a missing or mistyped attribute makes the condition fail, except for the
// null/empty operators which are defined over absence itself. A
// misconfigured rule can therefore never take down evaluation of a flag.
func (c Condition) Evaluate(ec Context) bool {
	attr, present := ec.Attribute(strings.TrimSpace(c.Attribute))

	switch c.Operator {
	case OpIsNull:
		return !present
	case OpIsNotNull:
		return present
	case OpIsEmpty:
		return !present || attr.Empty()
	case OpIsNotEmpty:
		return present && !attr.Empty()
	}

	if !present {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return c.Value.Equal(attr)
	case OpNotEquals:
		// A mistyped attribute fails the condition rather than passing
		// through negation.
		if !coercible(c.Value, attr) {
			return false
		}
		return !c.Value.Equal(attr)
	case OpContains:
		return contains(attr, c.Value)
	case OpNotContains:
		// A mistyped attribute fails the condition rather than passing
		// through negation.
		if !containable(attr) {
			return false
		}
		return !contains(attr, c.Value)
	case OpStartsWith:
		return prefixSuffix(attr, c.Value, strings.HasPrefix)
	case OpEndsWith:
		return prefixSuffix(attr, c.Value, strings.HasSuffix)
	case OpGreaterThan:
		return compareNumeric(attr, c.Value, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumeric(attr, c.Value, func(a, b float64) bool { return a < b })
	case OpGreaterThanOrEquals:
		return compareNumeric(attr, c.Value, func(a, b float64) bool { return a >= b })
	case OpLessThanOrEquals:
		return compareNumeric(attr, c.Value, func(a, b float64) bool { return a <= b })
	case OpIn:
		return member(c.Value, attr)
	case OpNotIn:
		if !memberable(c.Value, attr) {
			return false
		}
		return !member(c.Value, attr)
	default:
		// Unknown operator fails closed.
		return false
	}
}

// coercible reports whether the attribute coerces to the condition
// value's kind. Negated operators check it first so a type mismatch
// fails the condition instead of satisfying it through negation.
func coercible(cond, attr Value) bool {
	switch cond.Kind {
	case KindString:
		_, ok := attr.AsString()
		return ok
	case KindNumber:
		_, ok := attr.AsNumber()
		return ok
	case KindBool:
		_, ok := attr.AsBool()
		return ok
	case KindStringList:
		return attr.Kind == KindStringList
	case KindNumberList:
		return attr.Kind == KindNumberList
	default:
		return false
	}
}

// memberable is the membership-test analogue of coercible: the attribute
// must coerce to the element type of the condition's set.
func memberable(cond, attr Value) bool {
	switch cond.Kind {
	case KindStringList:
		_, ok := attr.AsString()
		return ok
	case KindNumberList:
		_, ok := attr.AsNumber()
		return ok
	default:
		return coercible(cond, attr)
	}
}

func containable(attr Value) bool {
	switch attr.Kind {
	case KindString, KindStringList, KindNumberList:
		return true
	default:
		return false
	}
}

// contains is a substring test for string attributes and a membership test
// for list-valued attributes.
func contains(attr, cond Value) bool {
	switch attr.Kind {
	case KindString:
		needle, ok := cond.AsString()
		return ok && strings.Contains(attr.Str, needle)
	case KindStringList:
		needle, ok := cond.AsString()
		if !ok {
			return false
		}
		for _, item := range attr.StrList {
			if item == needle {
				return true
			}
		}
		return false
	case KindNumberList:
		needle, ok := cond.AsNumber()
		if !ok {
			return false
		}
		for _, item := range attr.NumList {
			if item == needle {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// prefixSuffix fails, not errors, on non-string attributes.
func prefixSuffix(attr, cond Value, test func(s, affix string) bool) bool {
	if attr.Kind != KindString {
		return false
	}
	affix, ok := cond.AsString()
	return ok && test(attr.Str, affix)
}

func compareNumeric(attr, cond Value, cmp func(a, b float64) bool) bool {
	left, ok := attr.AsNumber()
	if !ok {
		return false
	}
	right, ok := cond.AsNumber()
	if !ok {
		return false
	}
	return cmp(left, right)
}

// member treats the condition value as a set and tests the attribute for
// membership. A scalar condition value degrades to a one-element set.
func member(cond, attr Value) bool {
	switch cond.Kind {
	case KindStringList:
		needle, ok := attr.AsString()
		if !ok {
			return false
		}
		for _, item := range cond.StrList {
			if item == needle {
				return true
			}
		}
		return false
	case KindNumberList:
		needle, ok := attr.AsNumber()
		if !ok {
			return false
		}
		for _, item := range cond.NumList {
			if item == needle {
				return true
			}
		}
		return false
	default:
		return cond.Equal(attr)
	}
}
