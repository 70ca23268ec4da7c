package engine

import (
	"encoding/json"
	"strconv"
)

// Kind discriminates the variants a condition value or context attribute
// can take. Anything that does not fit one of the typed variants is Absent.
// Absent is the zero Kind so a Value whose JSON field was omitted entirely
// (UnmarshalJSON never runs for missing fields) is indistinguishable from
// an explicit null.
type Kind string

const (
	KindAbsent     Kind = ""
	KindString     Kind = "string"
	KindNumber     Kind = "number"
	KindBool       Kind = "bool"
	KindStringList Kind = "string_list"
	KindNumberList Kind = "number_list"
)

// Value is a tagged variant over the JSON-representable attribute types.
// Operator semantics are checked against the tag instead of duck-typing
// an `any` at evaluation time.
type Value struct {
	Kind    Kind
	Str     string
	Num     float64
	Bool    bool
	StrList []string
	NumList []float64
}

func Absent() Value          { return Value{Kind: KindAbsent} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func StringList(s []string) Value {
	return Value{Kind: KindStringList, StrList: s}
}
func NumberList(n []float64) Value {
	return Value{Kind: KindNumberList, NumList: n}
}

// FromAny coerces an untyped JSON value into a tagged Value. Unsupported
// shapes (maps, mixed lists, nested lists) come back as Absent with ok=false
// so callers can decide whether that is a validation error or just a
// condition failure.
func FromAny(raw any) (Value, bool) {
	switch v := raw.(type) {
	case nil:
		return Absent(), true
	case string:
		return String(v), true
	case bool:
		return Boolean(v), true
	case float64:
		return Number(v), true
	case float32:
		return Number(float64(v)), true
	case int:
		return Number(float64(v)), true
	case int32:
		return Number(float64(v)), true
	case int64:
		return Number(float64(v)), true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return Absent(), false
		}
		return Number(parsed), true
	case []string:
		return StringList(v), true
	case []float64:
		return NumberList(v), true
	case []any:
		return listFromAny(v)
	default:
		return Absent(), false
	}
}

func listFromAny(items []any) (Value, bool) {
	if len(items) == 0 {
		return StringList(nil), true
	}
	switch items[0].(type) {
	case string:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return Absent(), false
			}
			out = append(out, s)
		}
		return StringList(out), true
	default:
		out := make([]float64, 0, len(items))
		for _, item := range items {
			elem, ok := FromAny(item)
			if !ok || elem.Kind != KindNumber {
				return Absent(), false
			}
			out = append(out, elem.Num)
		}
		return NumberList(out), true
	}
}

// Empty reports whether the value counts as empty for IS_EMPTY: absent,
// the empty string, or a zero-length list. Numbers and booleans are never
// empty, including 0 and false.
func (v Value) Empty() bool {
	switch v.Kind {
	case KindAbsent:
		return true
	case KindString:
		return v.Str == ""
	case KindStringList:
		return len(v.StrList) == 0
	case KindNumberList:
		return len(v.NumList) == 0
	default:
		return false
	}
}

// AsNumber yields the numeric view of the value. Numeric strings parse;
// anything else is not a number.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		parsed, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// AsString yields the scalar coerced to its canonical string form.
// Lists and absent values have none.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindNumber:
		return formatNumber(v.Num), true
	case KindBool:
		return strconv.FormatBool(v.Bool), true
	default:
		return "", false
	}
}

// AsBool yields the boolean view. "true"/"false" strings parse.
func (v Value) AsBool() (bool, bool) {
	switch v.Kind {
	case KindBool:
		return v.Bool, true
	case KindString:
		parsed, err := strconv.ParseBool(v.Str)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// MarshalJSON emits the raw JSON scalar or list, not the tagged envelope,
// so stored rules stay readable and compatible with non-Go evaluators.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindStringList:
		if v.StrList == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.StrList)
	case KindNumberList:
		if v.NumList == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.NumList)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := FromAny(raw)
	if !ok {
		*v = Absent()
		return nil
	}
	*v = parsed
	return nil
}

// Equal implements strict equality after coercion toward the receiver's
// declared kind: numbers compare numerically, strings lexically.
func (v Value) Equal(other Value) bool {
	switch v.Kind {
	case KindNumber:
		n, ok := other.AsNumber()
		return ok && n == v.Num
	case KindString:
		s, ok := other.AsString()
		return ok && s == v.Str
	case KindBool:
		b, ok := other.AsBool()
		return ok && b == v.Bool
	case KindStringList:
		if other.Kind != KindStringList || len(other.StrList) != len(v.StrList) {
			return false
		}
		for i := range v.StrList {
			if v.StrList[i] != other.StrList[i] {
				return false
			}
		}
		return true
	case KindNumberList:
		if other.Kind != KindNumberList || len(other.NumList) != len(v.NumList) {
			return false
		}
		for i := range v.NumList {
			if v.NumList[i] != other.NumList[i] {
				return false
			}
		}
		return true
	case KindAbsent:
		return other.Kind == KindAbsent
	default:
		return false
	}
}
