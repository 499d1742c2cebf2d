package kpi

import (
	"encoding/json"
	"math"
)

// Value is a number that may be missing. Missing is distinct from zero.
type Value struct {
	v  float64
	ok bool
}

// Missing is the absent value.
var Missing = Value{}

// Of wraps f. NaN and infinities are never valid figures and become Missing.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{v: f, ok: true}
}

// FromPtr maps a decoded optional field to a Value.
func FromPtr(p *float64) Value {
	if p == nil {
		return Missing
	}
	return Of(*p)
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// Float returns the number, or zero when missing.
func (v Value) Float() float64 { return v.v }

// Valid reports whether the value is present.
func (v Value) Valid() bool { return v.ok }

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool { return !v.ok }

// Sub returns v - o, missing when either side is missing.
func (v Value) Sub(o Value) Value {
	if !v.ok || !o.ok {
		return Missing
	}
	return Of(v.v - o.v)
}

// Scale multiplies a present value by f.
func (v Value) Scale(f float64) Value {
	if !v.ok {
		return Missing
	}
	return Of(v.v * f)
}

// Or returns v when present, otherwise fallback.
func (v Value) Or(fallback Value) Value {
	if v.ok {
		return v
	}
	return fallback
}

// Ptr converts back to an optional field.
func (v Value) Ptr() *float64 {
	if !v.ok {
		return nil
	}
	f := v.v
	return &f
}

// MarshalJSON encodes missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as missing.
func (v *Value) UnmarshalJSON(data []byte) error {
	var p *float64
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = FromPtr(p)
	return nil
}

// Variation is (current/previous - 1) * 100. It is missing when either input is missing
// or previous is zero.
func Variation(current, previous Value) Value {
	if !current.ok || !previous.ok || previous.v == 0 {
		return Missing
	}
	return Of((current.v/previous.v - 1) * 100)
}

// RealVariation deflates a nominal percentage change by an inflation percentage:
// ((1+nom)/(1+ipc) - 1) * 100.
func RealVariation(nominalPct, inflationPct Value) Value {
	if !nominalPct.ok || !inflationPct.ok {
		return Missing
	}
	denominator := 1 + inflationPct.v/100
	if denominator == 0 {
		return Missing
	}
	return Of(((1+nominalPct.v/100)/denominator - 1) * 100)
}
