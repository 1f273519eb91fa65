package model

import (
	"bytes"
	"encoding/json"
	"math"
)

// Float is a float64 whose non-finite values (NaN, ±Inf) mean "not
// available". It encodes those as JSON null and decodes null back to NaN.
type Float float64

// NaN returns the "not available" Float.
func NaN() Float { return Float(math.NaN()) }

// Valid reports whether f holds a finite value.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = NaN()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
