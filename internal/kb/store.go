// Package kb holds the property registry, the class registry and the
// class-property activation map of a knowledge base.
package kb

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/model"
)

type classRow struct {
	id   uint64
	name string
}

type propRow struct {
	id     uint64
	name   string
	kind   model.PropertyKind
	values []string
}

type pairKey struct {
	class uint64
	prop  uint64
}

type entry struct {
	prop   model.State
	values map[string]model.State
	rng    *model.Range
}

// Store is the mutable knowledge base. Reads go through Snapshot, which
// returns an immutable copy; writes are last-write-wins and bump the revision.
type Store struct {
	mu       sync.RWMutex
	repo     Repository
	cache    cache.Cache
	revision uint64
	nextID   uint64

	classes []classRow
	props   []propRow
	entries map[pairKey]*entry
}

// Option configures a Store
type Option func(*Store)

// WithRepository enables write-through persistence
func WithRepository(repo Repository) Option {
	return func(s *Store) {
		s.repo = repo
	}
}

// WithCache memoises snapshots per revision
func WithCache(c cache.Cache) Option {
	return func(s *Store) {
		if c != nil {
			s.cache = c
		}
	}
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		cache:   cache.Nop{},
		entries: make(map[pairKey]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with the repository contents
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	dump, err := s.repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load knowledge base")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.classes = nil
	s.props = nil
	s.entries = make(map[pairKey]*entry)

	for _, p := range dump.Properties {
		s.props = append(s.props, propRow{id: s.newID(), name: p.Name, kind: p.Kind, values: append([]string(nil), p.Values...)})
	}
	for _, c := range dump.Classes {
		row := classRow{id: s.newID(), name: c.Name}
		s.classes = append(s.classes, row)
		for _, pd := range c.Props {
			_, p := s.findProp(pd.Name)
			if p == nil {
				return errors.Newf("load knowledge base: class %q references unknown property %q", c.Name, pd.Name)
			}
			e := s.entryFor(row.id, p.id)
			e.prop = pd.Property
			for _, v := range pd.Values {
				e.values[v.Label] = v.State
			}
			if pd.Range != nil {
				r := *pd.Range
				e.rng = &r
			}
		}
	}
	s.bump()
	return nil
}

// Snapshot returns an immutable copy of the current state
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := cache.SnapshotKey(s.revision)
	if v, ok := s.cache.Get(key); ok {
		if snap, ok := v.(*Snapshot); ok {
			return snap
		}
	}

	snap := s.buildSnapshot()
	s.cache.Set(key, snap, 0)
	return snap
}

// Revision returns the current revision
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		revision:   s.revision,
		classes:    make([]model.Class, len(s.classes)),
		properties: make([]model.Property, len(s.props)),
		propIndex:  make(map[string]int, len(s.props)),
		classIndex: make(map[string]int, len(s.classes)),
		entries:    make(map[pairName]Entry, len(s.entries)),
	}

	propNames := make(map[uint64]string, len(s.props))
	for i, p := range s.props {
		snap.properties[i] = model.Property{Name: p.name, Kind: p.kind, Values: append([]string{}, p.values...)}
		snap.propIndex[p.name] = i
		propNames[p.id] = p.name
	}
	classNames := make(map[uint64]string, len(s.classes))
	for i, c := range s.classes {
		snap.classes[i] = model.Class{Name: c.name}
		snap.classIndex[c.name] = i
		classNames[c.id] = c.name
	}

	for k, e := range s.entries {
		out := Entry{Property: e.prop, Values: make(map[string]model.State, len(e.values))}
		for label, st := range e.values {
			out.Values[label] = st
		}
		if e.rng != nil {
			r := *e.rng
			out.Range = &r
		}
		snap.entries[pairName{class: classNames[k.class], prop: propNames[k.prop]}] = out
	}

	return snap
}

// AddClass registers a new class
func (s *Store) AddClass(ctx context.Context, name string) error {
	name, err := cleanName("class name", name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, c := s.findClass(name); c != nil {
		return model.NewConflictError("class", name)
	}
	if s.repo != nil {
		if err := s.repo.CreateClass(ctx, name); err != nil {
			return errors.Wrapf(err, "persist class %q", name)
		}
	}

	s.classes = append(s.classes, classRow{id: s.newID(), name: name})
	s.bump()
	return nil
}

// DeleteClass removes a class. It fails with an integrity error while the
// class still has active activation entries; inactive entries are dropped.
func (s *Store) DeleteClass(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, c := s.findClass(name)
	if c == nil {
		return model.NewNotFoundError("class", name)
	}

	var active []string
	for _, p := range s.props {
		if e, ok := s.entries[pairKey{class: c.id, prop: p.id}]; ok && e.active() {
			active = append(active, p.name)
		}
	}
	if len(active) > 0 {
		return model.NewIntegrityError("class %q is still referenced by active properties: %s", name, strings.Join(active, ", "))
	}

	if s.repo != nil {
		if err := s.repo.DeleteClass(ctx, name); err != nil {
			return errors.Wrapf(err, "delete class %q", name)
		}
	}

	for k := range s.entries {
		if k.class == c.id {
			delete(s.entries, k)
		}
	}
	s.classes = append(s.classes[:idx], s.classes[idx+1:]...)
	s.bump()
	return nil
}

// AddProperty registers a new property
func (s *Store) AddProperty(ctx context.Context, name string, kind model.PropertyKind) error {
	name, err := cleanName("property name", name)
	if err != nil {
		return err
	}
	if kind != model.KindNumeric && kind != model.KindEnum {
		return model.NewValidationError("type", "unknown property type %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, p := s.findProp(name); p != nil {
		return model.NewConflictError("property", name)
	}
	if s.repo != nil {
		if err := s.repo.CreateProperty(ctx, name, kind); err != nil {
			return errors.Wrapf(err, "persist property %q", name)
		}
	}

	s.props = append(s.props, propRow{id: s.newID(), name: name, kind: kind})
	s.bump()
	return nil
}

// DeleteProperty removes a property. It fails with an integrity error while
// any class still has an active entry for it.
func (s *Store) DeleteProperty(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, p := s.findProp(name)
	if p == nil {
		return model.UnknownProperty(name)
	}

	var active []string
	for _, c := range s.classes {
		if e, ok := s.entries[pairKey{class: c.id, prop: p.id}]; ok && e.active() {
			active = append(active, c.name)
		}
	}
	if len(active) > 0 {
		return model.NewIntegrityError("property %q is still active for classes: %s", name, strings.Join(active, ", "))
	}

	if s.repo != nil {
		if err := s.repo.DeleteProperty(ctx, name); err != nil {
			return errors.Wrapf(err, "delete property %q", name)
		}
	}

	for k := range s.entries {
		if k.prop == p.id {
			delete(s.entries, k)
		}
	}
	s.props = append(s.props[:idx], s.props[idx+1:]...)
	s.bump()
	return nil
}

// AddValue registers a legal value label of an enum property
func (s *Store) AddValue(ctx context.Context, prop, label string) error {
	label, err := cleanName("value", label)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, p := s.findProp(prop)
	if p == nil {
		return model.UnknownProperty(prop)
	}
	if p.kind != model.KindEnum {
		return model.NewValidationError("value", "property %q is numeric and has no value set", prop)
	}
	for _, v := range p.values {
		if v == label {
			return model.NewConflictError("value", label)
		}
	}
	if s.repo != nil {
		if err := s.repo.CreateValue(ctx, prop, label); err != nil {
			return errors.Wrapf(err, "persist value %q of %q", label, prop)
		}
	}

	p.values = append(p.values, label)
	s.bump()
	return nil
}

// DeleteValue removes a value label. It fails with an integrity error while
// any class has the value switched on.
func (s *Store) DeleteValue(ctx context.Context, prop, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p := s.findProp(prop)
	if p == nil {
		return model.UnknownProperty(prop)
	}
	vi := -1
	for i, v := range p.values {
		if v == label {
			vi = i
			break
		}
	}
	if vi < 0 {
		return model.NewNotFoundError("value", label)
	}

	var active []string
	for _, c := range s.classes {
		if e, ok := s.entries[pairKey{class: c.id, prop: p.id}]; ok && e.values[label].Active() {
			active = append(active, c.name)
		}
	}
	if len(active) > 0 {
		return model.NewIntegrityError("value %q of %q is still on for classes: %s", label, prop, strings.Join(active, ", "))
	}

	if s.repo != nil {
		if err := s.repo.DeleteValue(ctx, prop, label); err != nil {
			return errors.Wrapf(err, "delete value %q of %q", label, prop)
		}
	}

	for k, e := range s.entries {
		if k.prop == p.id {
			delete(e.values, label)
		}
	}
	p.values = append(p.values[:vi], p.values[vi+1:]...)
	s.bump()
	return nil
}

// SetPropertyActivation toggles whether a property applies to a class
func (s *Store) SetPropertyActivation(ctx context.Context, class, prop string, state model.State) error {
	if state == model.StateUnset {
		return model.NewValidationError("val", "toggle must be on or off")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, p, err := s.resolvePair(class, prop)
	if err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.SetPropertyState(ctx, class, prop, state); err != nil {
			return errors.Wrapf(err, "persist activation of %q for %q", prop, class)
		}
	}

	s.entryFor(c.id, p.id).prop = state
	s.bump()
	return nil
}

// SetValueActivation toggles one (class, property, value) triple. Sibling
// values are untouched.
func (s *Store) SetValueActivation(ctx context.Context, class, prop, label string, state model.State) error {
	if state == model.StateUnset {
		return model.NewValidationError("isActive", "toggle must be on or off")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, p, err := s.resolvePair(class, prop)
	if err != nil {
		return err
	}
	if p.kind != model.KindEnum {
		return model.NewValidationError("value", "property %q is numeric, set a range instead", prop)
	}
	if !slices.Contains(p.values, label) {
		return model.NewNotFoundError("value", label)
	}
	if s.repo != nil {
		if err := s.repo.SetValueState(ctx, class, prop, label, state); err != nil {
			return errors.Wrapf(err, "persist value %q of %q for %q", label, prop, class)
		}
	}

	s.entryFor(c.id, p.id).values[label] = state
	s.bump()
	return nil
}

// SetPropertyRange replaces the numeric range of a (class, property) pair.
// Both bounds are always supplied together.
func (s *Store) SetPropertyRange(ctx context.Context, class, prop string, min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) {
		return model.NewValidationError("range", "bounds must be numbers")
	}
	r, err := model.NewRange(min, max)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, p, err := s.resolvePair(class, prop)
	if err != nil {
		return err
	}
	if p.kind != model.KindNumeric {
		return model.NewValidationError("range", "property %q is an enum, toggle its values instead", prop)
	}
	if s.repo != nil {
		if err := s.repo.SetRange(ctx, class, prop, r); err != nil {
			return errors.Wrapf(err, "persist range of %q for %q", prop, class)
		}
	}

	s.entryFor(c.id, p.id).rng = &r
	s.bump()
	return nil
}

// Dump returns an ordered copy of the knowledge base with configured entries only
func (s *Store) Dump() *Dump {
	snap := s.Snapshot()
	return snap.Dump()
}

func (s *Store) resolvePair(class, prop string) (*classRow, *propRow, error) {
	_, c := s.findClass(class)
	if c == nil {
		return nil, nil, model.NewNotFoundError("class", class)
	}
	_, p := s.findProp(prop)
	if p == nil {
		return nil, nil, model.UnknownProperty(prop)
	}
	return c, p, nil
}

func (s *Store) findClass(name string) (int, *classRow) {
	for i := range s.classes {
		if s.classes[i].name == name {
			return i, &s.classes[i]
		}
	}
	return -1, nil
}

func (s *Store) findProp(name string) (int, *propRow) {
	for i := range s.props {
		if s.props[i].name == name {
			return i, &s.props[i]
		}
	}
	return -1, nil
}

func (s *Store) entryFor(classID, propID uint64) *entry {
	k := pairKey{class: classID, prop: propID}
	e, ok := s.entries[k]
	if !ok {
		e = &entry{values: make(map[string]model.State)}
		s.entries[k] = e
	}
	return e
}

func (s *Store) newID() uint64 {
	s.nextID++
	return s.nextID
}

// bump must be called with the write lock held
func (s *Store) bump() {
	s.cache.Delete(cache.SnapshotKey(s.revision))
	s.revision++
}

func (e *entry) active() bool {
	if e.prop.Active() || e.rng != nil {
		return true
	}
	for _, st := range e.values {
		if st.Active() {
			return true
		}
	}
	return false
}

func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewValidationError(field, "must not be empty")
	}
	return name, nil
}
