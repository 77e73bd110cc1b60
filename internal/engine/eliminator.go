package engine

import (
	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/model"
)

// Eliminator narrows the candidate classes one observation at a time
type Eliminator struct{}

// NewEliminator creates a new eliminator
func NewEliminator() *Eliminator {
	return &Eliminator{}
}

// observed is a validated observation with its property resolved
type observed struct {
	prop   model.Property
	label  string
	number float64
}

// Identify runs the elimination protocol. All observations are validated
// before the first step is produced, so a failure never yields a partial trace.
//
// The trace always has one step per observation, in input order, even once
// no class survives. A class is reported only at the step that first
// disqualified it.
func (e *Eliminator) Identify(snap *kb.Snapshot, observations []model.Observation) (model.Identification, error) {
	steps, err := e.validate(snap, observations)
	if err != nil {
		return model.Identification{}, err
	}

	classes := snap.Classes()
	alive := make(map[string]bool, len(classes))
	for _, c := range classes {
		alive[c.Name] = true
	}

	process := make([]model.EliminationStep, 0, len(steps))
	for _, obs := range steps {
		eliminated := []string{}
		for _, c := range classes {
			if !alive[c.Name] {
				continue
			}
			if !admits(snap.Entry(c.Name, obs.prop.Name), obs) {
				alive[c.Name] = false
				eliminated = append(eliminated, c.Name)
			}
		}
		process = append(process, model.EliminationStep{
			PropertyName:      obs.prop.Name,
			EliminatedClasses: eliminated,
		})
	}

	result := []string{}
	for _, c := range classes {
		if alive[c.Name] {
			result = append(result, c.Name)
		}
	}

	return model.Identification{Process: process, Result: result}, nil
}

func (e *Eliminator) validate(snap *kb.Snapshot, observations []model.Observation) ([]observed, error) {
	if len(observations) == 0 {
		return nil, model.ErrEmptyInput
	}

	out := make([]observed, 0, len(observations))
	for _, o := range observations {
		prop, ok := snap.Property(o.Name)
		if !ok {
			return nil, model.UnknownProperty(o.Name)
		}

		if !o.Value.IsSet() {
			return nil, &model.InvalidValueError{Property: o.Name, Value: "", Reason: "a value is required"}
		}

		obs := observed{prop: prop, label: o.Value.String()}
		if prop.Kind == model.KindNumeric {
			n, ok := o.Value.Float()
			if !ok {
				return nil, &model.InvalidValueError{Property: o.Name, Value: o.Value.String(), Reason: "numeric property requires a number"}
			}
			obs.number = n
		}
		out = append(out, obs)
	}
	return out, nil
}

// admits reports whether a class with this activation survives the observation.
// A property switched off for the class disqualifies it outright.
func admits(entry kb.Entry, obs observed) bool {
	if entry.Property == model.StateOff {
		return false
	}

	switch obs.prop.Kind {
	case model.KindNumeric:
		return entry.Range != nil && entry.Range.Contains(obs.number)
	default:
		return entry.ValueState(obs.label) == model.StateOn
	}
}
