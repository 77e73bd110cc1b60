package model

// NewClass is the body of a class creation request
type NewClass struct {
	Name string `json:"name"`
}

// NewProperty is the body of a property creation request; Type defaults to enum
type NewProperty struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ValueToggle is one entry of a value toggle request
type ValueToggle struct {
	ValueName string `json:"valueName"`
	IsActive  string `json:"isActive"`
}

// ToggleValues switches values of one (class, property) pair. For a numeric
// property the value names are read as the range bounds.
type ToggleValues struct {
	ClassName string        `json:"className"`
	PropName  string        `json:"propName"`
	PropType  string        `json:"propType"`
	Values    []ValueToggle `json:"values"`
}

// RangeUpdate replaces the range of a numeric (class, property) pair
type RangeUpdate struct {
	ClassName string   `json:"className"`
	PropName  string   `json:"propName"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
}
