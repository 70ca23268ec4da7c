package engine

// Context carries the caller-supplied attributes one decision is computed
// against, plus the stable identity key used for deterministic bucketing.
// It is never persisted.
type Context struct {
	IdentityKey string
	Attributes  map[string]Value
}

// NewContext builds an evaluation context from untyped attributes.
// Attributes that do not coerce to a supported variant are dropped, so an
// un-coercible attribute behaves exactly like a missing one.
func NewContext(identityKey string, attrs map[string]any) Context {
	ec := Context{IdentityKey: identityKey}
	if len(attrs) == 0 {
		return ec
	}
	ec.Attributes = make(map[string]Value, len(attrs))
	for name, raw := range attrs {
		value, ok := FromAny(raw)
		if !ok {
			continue
		}
		ec.Attributes[name] = value
	}
	return ec
}

// Attribute looks up an attribute by name. Absent-tagged values report
// as missing.
func (c Context) Attribute(name string) (Value, bool) {
	value, ok := c.Attributes[name]
	if !ok || value.Kind == KindAbsent {
		return Absent(), false
	}
	return value, true
}
