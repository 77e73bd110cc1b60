package model

import (
	"fmt"
	"strings"
)

// PropertyKind classifies how a property is observed
type PropertyKind string

const (
	KindNumeric PropertyKind = "numeric" // Activation is a [min, max] range
	KindEnum    PropertyKind = "enum"    // Activation is per registered value label
)

// ParsePropertyKind parses a kind name, defaulting an empty name to enum
func ParsePropertyKind(s string) (PropertyKind, error) {
	switch PropertyKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNumeric:
		return KindNumeric, nil
	case KindEnum, "":
		return KindEnum, nil
	default:
		return "", NewValidationError("type", "unknown property type %q (supported: numeric, enum)", s)
	}
}

// Property is an observable attribute of a class
type Property struct {
	Name   string       `json:"name" yaml:"name"`
	Kind   PropertyKind `json:"type" yaml:"type"`
	Values []string     `json:"values" yaml:"values,omitempty"` // Legal labels, enum only, insertion order
}

// HasValue reports whether label is a registered value of the property
func (p Property) HasValue(label string) bool {
	for _, v := range p.Values {
		if v == label {
			return true
		}
	}
	return false
}

// Class is a candidate identification target
type Class struct {
	Name string `json:"name" yaml:"name"`
}

// State is the tri-state of a single activation entry.
// The zero value is StateUnset: the entry was never configured.
type State int

const (
	StateUnset State = iota
	StateOn
	StateOff
)

func (s State) String() string {
	switch s {
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	default:
		return "unset"
	}
}

// Active reports whether the entry is explicitly switched on
func (s State) Active() bool {
	return s == StateOn
}

// ParseState parses the "on"/"off" toggle used by the editing surfaces
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return StateOn, nil
	case "off", "false", "0":
		return StateOff, nil
	default:
		return StateUnset, NewValidationError("val", "toggle must be \"on\" or \"off\", got %q", s)
	}
}

// Toggle renders a state for the editing surfaces; unset renders as off
func (s State) Toggle() string {
	if s == StateOn {
		return "on"
	}
	return "off"
}

// Range is the inclusive numeric range a class accepts for a numeric property
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// NewRange validates both bounds together
func NewRange(min, max float64) (Range, error) {
	if min > max {
		return Range{}, NewValidationError("range", "min %g is greater than max %g", min, max)
	}
	return Range{Min: min, Max: max}, nil
}

// Contains reports whether x lies within the range, bounds included
func (r Range) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}
