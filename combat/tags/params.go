package tags

// Params is the free-form parameter bag attached to an effect invocation.
// Values are numeric or string; accessors coerce the common numeric kinds
// so callers never type-switch.
type Params map[string]any

// Float returns the numeric value under key, coercing ints.
func (p Params) Float(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// FloatOr returns the numeric value under key or fallback.
func (p Params) FloatOr(key string, fallback float64) float64 {
	if v, ok := p.Float(key); ok {
		return v
	}
	return fallback
}

// Int returns the value under key truncated to int.
func (p Params) Int(key string) (int, bool) {
	v, ok := p.Float(key)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// IntOr returns the value under key truncated to int, or fallback.
func (p Params) IntOr(key string, fallback int) int {
	if v, ok := p.Int(key); ok {
		return v
	}
	return fallback
}

// String returns the string value under key.
func (p Params) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[key].(string)
	return v, ok
}

// StringOr returns the string value under key or fallback.
func (p Params) StringOr(key, fallback string) string {
	if v, ok := p.String(key); ok {
		return v
	}
	return fallback
}

// Bool returns the boolean value under key.
func (p Params) Bool(key string) (bool, bool) {
	if p == nil {
		return false, false
	}
	v, ok := p[key].(bool)
	return v, ok
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p[key]
	return ok
}

// Clone returns an independent shallow copy. Nil stays nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	cloned := make(Params, len(p))
	for k, v := range p {
		cloned[k] = v
	}
	return cloned
}

// Merge returns a copy of p with overlay applied on top; overlay wins on
// key collisions. Neither input is mutated.
func (p Params) Merge(overlay Params) Params {
	if len(p) == 0 {
		return overlay.Clone()
	}
	merged := p.Clone()
	if merged == nil {
		merged = make(Params, len(overlay))
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
