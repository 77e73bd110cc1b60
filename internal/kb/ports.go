package kb

import (
	"context"

	"github.com/ppiankov/sieve/internal/model"
)

// Repository persists the knowledge base. The store calls it after validation
// and before applying a change in memory, so a failed write leaves memory intact.
type Repository interface {
	Load(ctx context.Context) (*Dump, error)

	CreateClass(ctx context.Context, name string) error
	DeleteClass(ctx context.Context, name string) error
	CreateProperty(ctx context.Context, name string, kind model.PropertyKind) error
	DeleteProperty(ctx context.Context, name string) error
	CreateValue(ctx context.Context, prop, label string) error
	DeleteValue(ctx context.Context, prop, label string) error

	SetPropertyState(ctx context.Context, class, prop string, state model.State) error
	SetValueState(ctx context.Context, class, prop, label string, state model.State) error
	SetRange(ctx context.Context, class, prop string, r model.Range) error
}

// Dump is a full, ordered copy of the knowledge base
type Dump struct {
	Properties []model.Property
	Classes    []ClassDump
}

// ClassDump holds the configured activation entries of one class
type ClassDump struct {
	Name  string
	Props []PropDump
}

// PropDump is the activation of one property for one class
type PropDump struct {
	Name     string
	Property model.State
	Values   []ValueDump
	Range    *model.Range
}

// ValueDump is the activation of one value
type ValueDump struct {
	Label string
	State model.State
}
