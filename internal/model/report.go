package model

// EliminationStep lists the classes first disqualified by one observation
type EliminationStep struct {
	PropertyName      string   `json:"propertyName"`
	EliminatedClasses []string `json:"eliminatedClasses"` // Never nil, empty means no new eliminations
}

// Identification is the trace-producing identify response
type Identification struct {
	Process []EliminationStep `json:"process"`
	Result  []string          `json:"result"` // Surviving classes, class insertion order
}

// Classification is the legacy identify response carrying only the survivors
type Classification struct {
	Classes []string `json:"classes"`
}

// Classification drops the trace
func (i Identification) Classification() Classification {
	return Classification{Classes: i.Result}
}

// Capability selects the identify response shape
type Capability string

const (
	CapabilityClassify Capability = "classify" // {classes}
	CapabilityTrace    Capability = "trace"    // {process, result}
)

// Completeness reports (class, property) pairs without any activation entry
type Completeness struct {
	Classes []string            `json:"classes"`
	IsError bool                `json:"isError"`
	Missing map[string][]string `json:"missing"` // Class name -> property names in registry order
	Props   []string            `json:"props"`
}

// Prediction is the statistical predictor answer
type Prediction struct {
	PredictedClass string `json:"predicted_class"`
}

// ClassProp is one property-level toggle of a class
type ClassProp struct {
	Name string `json:"name"`
	Val  string `json:"val"` // "on" | "off"
}

// ClassWithProps is the property-level activation view of one class
type ClassWithProps struct {
	Name  string      `json:"name"`
	Props []ClassProp `json:"props"`
}

// PropValue is one value-level toggle
type PropValue struct {
	Name     string `json:"name"`
	IsActive string `json:"isActive"` // "on" | "off"
}

// ClassPropValues is the value-level activation of one property for one class
type ClassPropValues struct {
	Name   string       `json:"name"`
	Type   PropertyKind `json:"type"`
	Values []PropValue  `json:"values"`
	Range  *Range       `json:"range,omitempty"` // Numeric only, nil when unset
}

// ClassWithPropValues is the value-level activation view of one class
type ClassWithPropValues struct {
	Name  string            `json:"name"`
	Props []ClassPropValues `json:"props"`
}
