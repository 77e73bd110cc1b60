// Package engine implements the completeness check and the rule-based
// elimination over an immutable knowledge base snapshot.
package engine

import (
	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/model"
)

// Checker finds (class, property) pairs without activation data
type Checker struct{}

// NewChecker creates a new completeness checker
func NewChecker() *Checker {
	return &Checker{}
}

// Check scans the full class x property cross product. A pair is missing
// when nothing was ever configured for it; an enum property without legal
// values is missing for every class since no value can ever be switched on.
func (c *Checker) Check(snap *kb.Snapshot) model.Completeness {
	result := model.Completeness{
		Classes: snap.ClassNames(),
		Missing: make(map[string][]string),
		Props:   snap.PropertyNames(),
	}

	for _, class := range snap.Classes() {
		var missing []string
		for _, prop := range snap.Properties() {
			if unsatisfiable(prop) || !snap.Entry(class.Name, prop.Name).Configured() {
				missing = append(missing, prop.Name)
			}
		}
		if len(missing) > 0 {
			result.Missing[class.Name] = missing
		}
	}

	result.IsError = len(result.Missing) > 0
	return result
}

// MissingCount returns the number of missing pairs in a report
func MissingCount(c model.Completeness) int {
	n := 0
	for _, props := range c.Missing {
		n += len(props)
	}
	return n
}

func unsatisfiable(p model.Property) bool {
	return p.Kind == model.KindEnum && len(p.Values) == 0
}
