package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Value is an observed property value. The editing surfaces send either a
// JSON string or a JSON number; both are kept as their textual form and
// numeric interpretation is deferred to the property kind. The zero Value
// is absent: the observation named a property without a value.
type Value struct {
	raw      string
	isNumber bool
	set      bool
}

// StringValue wraps a label
func StringValue(s string) Value {
	return Value{raw: s, set: true}
}

// NumberValue wraps a number
func NumberValue(f float64) Value {
	return Value{raw: strconv.FormatFloat(f, 'f', -1, 64), isNumber: true, set: true}
}

// String returns the textual form of the value
func (v Value) String() string {
	return v.raw
}

// IsSet reports whether a value was supplied at all
func (v Value) IsSet() bool {
	return v.set
}

// IsNumber reports whether the value arrived as a JSON number
func (v Value) IsNumber() bool {
	return v.isNumber
}

// Float parses the value as a number
func (v Value) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MarshalJSON writes numbers as numbers and everything else as strings
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if v.isNumber {
		return []byte(v.raw), nil
	}
	return json.Marshal(v.raw)
}

// UnmarshalJSON accepts a JSON string or a JSON number
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return NewValidationError("value", "must be a string or a number, got null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{raw: s, set: true}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return NewValidationError("value", "expected string or number, got %s", string(data))
	}
	*v = Value{raw: n.String(), isNumber: true, set: true}
	return nil
}

// MarshalYAML writes the textual form
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.set {
		return nil, nil
	}
	if f, ok := v.Float(); ok && v.isNumber {
		return f, nil
	}
	return v.raw, nil
}

// Observation is one user-supplied fact (SelectedProperty)
type Observation struct {
	Name  string `json:"name" yaml:"name"`
	Value Value  `json:"value" yaml:"value"`
}

// ParseObservation parses the "name=value" form used by the CLI and batch files.
// Values that parse as numbers are treated as numbers.
func ParseObservation(s string) (Observation, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !ok || name == "" {
		return Observation{}, NewValidationError("observation", "expected name=value, got %q", s)
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return Observation{Name: name, Value: Value{raw: value, isNumber: true, set: true}}, nil
	}
	return Observation{Name: name, Value: StringValue(value)}, nil
}

// ParseObservationList parses a "a=1; b=red" list
func ParseObservationList(s string) ([]Observation, error) {
	var out []Observation
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		obs, err := ParseObservation(part)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}
