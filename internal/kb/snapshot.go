package kb

import (
	"github.com/ppiankov/sieve/internal/model"
)

// Entry is the activation of one (class, property) pair
type Entry struct {
	Property model.State            // Property-level applicability toggle
	Values   map[string]model.State // Per value label, enum properties only
	Range    *model.Range           // Numeric properties only, nil when unset
}

// Configured reports whether the pair has at least one activation entry.
// An explicit off counts; only a pair never touched is unconfigured.
func (e Entry) Configured() bool {
	if e.Property != model.StateUnset || e.Range != nil {
		return true
	}
	for _, st := range e.Values {
		if st != model.StateUnset {
			return true
		}
	}
	return false
}

// Active reports whether the pair holds anything switched on
func (e Entry) Active() bool {
	if e.Property.Active() || e.Range != nil {
		return true
	}
	for _, st := range e.Values {
		if st.Active() {
			return true
		}
	}
	return false
}

// ValueState returns the state of one value label
func (e Entry) ValueState(label string) model.State {
	return e.Values[label]
}

type pairName struct {
	class string
	prop  string
}

// Snapshot is an immutable copy of the registries and the activation map
// taken at one revision. Slices returned by its accessors must not be modified.
type Snapshot struct {
	revision   uint64
	classes    []model.Class
	properties []model.Property
	propIndex  map[string]int
	classIndex map[string]int
	entries    map[pairName]Entry
}

// Revision is the store revision the snapshot was taken at
func (s *Snapshot) Revision() uint64 {
	return s.revision
}

// Classes returns the classes in insertion order
func (s *Snapshot) Classes() []model.Class {
	return s.classes
}

// ClassNames returns the class names in insertion order
func (s *Snapshot) ClassNames() []string {
	names := make([]string, len(s.classes))
	for i, c := range s.classes {
		names[i] = c.Name
	}
	return names
}

// Properties returns the properties in insertion order
func (s *Snapshot) Properties() []model.Property {
	return s.properties
}

// PropertyNames returns the property names in insertion order
func (s *Snapshot) PropertyNames() []string {
	names := make([]string, len(s.properties))
	for i, p := range s.properties {
		names[i] = p.Name
	}
	return names
}

// Property looks a property up by name
func (s *Snapshot) Property(name string) (model.Property, bool) {
	idx, ok := s.propIndex[name]
	if !ok {
		return model.Property{}, false
	}
	return s.properties[idx], true
}

// HasClass reports whether the class exists
func (s *Snapshot) HasClass(name string) bool {
	_, ok := s.classIndex[name]
	return ok
}

// Entry returns a copy of the activation of a (class, property) pair; the
// zero Entry means unconfigured.
func (s *Snapshot) Entry(class, prop string) Entry {
	e, ok := s.entries[pairName{class: class, prop: prop}]
	if !ok {
		return Entry{}
	}
	out := Entry{Property: e.Property}
	if e.Values != nil {
		out.Values = make(map[string]model.State, len(e.Values))
		for label, st := range e.Values {
			out.Values[label] = st
		}
	}
	if e.Range != nil {
		r := *e.Range
		out.Range = &r
	}
	return out
}
