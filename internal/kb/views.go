package kb

import (
	"strconv"

	"github.com/ppiankov/sieve/internal/model"
)

// PropertiesWithValues renders the property registry for the editing surfaces
func (s *Snapshot) PropertiesWithValues() []model.Property {
	out := make([]model.Property, len(s.properties))
	for i, p := range s.properties {
		out[i] = model.Property{Name: p.Name, Kind: p.Kind, Values: append([]string{}, p.Values...)}
	}
	return out
}

// ClassesWithProps renders the property-level activation of every class.
// Unset pairs render as off.
func (s *Snapshot) ClassesWithProps() []model.ClassWithProps {
	out := make([]model.ClassWithProps, 0, len(s.classes))
	for _, c := range s.classes {
		row := model.ClassWithProps{Name: c.Name, Props: make([]model.ClassProp, 0, len(s.properties))}
		for _, p := range s.properties {
			row.Props = append(row.Props, model.ClassProp{Name: p.Name, Val: s.Entry(c.Name, p.Name).Property.Toggle()})
		}
		out = append(out, row)
	}
	return out
}

// ClassesWithValues renders the value-level activation of every class.
// A configured numeric range is also listed as its two bounds, both on.
func (s *Snapshot) ClassesWithValues() []model.ClassWithPropValues {
	out := make([]model.ClassWithPropValues, 0, len(s.classes))
	for _, c := range s.classes {
		row := model.ClassWithPropValues{Name: c.Name, Props: make([]model.ClassPropValues, 0, len(s.properties))}
		for _, p := range s.properties {
			e := s.Entry(c.Name, p.Name)
			pv := model.ClassPropValues{Name: p.Name, Type: p.Kind, Values: make([]model.PropValue, 0, len(p.Values))}
			for _, v := range p.Values {
				pv.Values = append(pv.Values, model.PropValue{Name: v, IsActive: e.ValueState(v).Toggle()})
			}
			if e.Range != nil {
				r := *e.Range
				pv.Range = &r
				if p.Kind == model.KindNumeric {
					pv.Values = append(pv.Values,
						model.PropValue{Name: formatBound(r.Min), IsActive: "on"},
						model.PropValue{Name: formatBound(r.Max), IsActive: "on"})
				}
			}
			row.Props = append(row.Props, pv)
		}
		out = append(out, row)
	}
	return out
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Dump returns an ordered copy with configured entries only
func (s *Snapshot) Dump() *Dump {
	d := &Dump{Properties: s.PropertiesWithValues()}
	for _, c := range s.classes {
		cd := ClassDump{Name: c.Name}
		for _, p := range s.properties {
			e := s.Entry(c.Name, p.Name)
			if !e.Configured() {
				continue
			}
			pd := PropDump{Name: p.Name, Property: e.Property}
			for _, v := range p.Values {
				if st := e.ValueState(v); st != model.StateUnset {
					pd.Values = append(pd.Values, ValueDump{Label: v, State: st})
				}
			}
			if e.Range != nil {
				r := *e.Range
				pd.Range = &r
			}
			cd.Props = append(cd.Props, pd)
		}
		d.Classes = append(d.Classes, cd)
	}
	return d
}
