// Package kbfile reads and writes the knowledge base as a YAML document.
package kbfile

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/model"
)

// Document is the on-disk form of a knowledge base
type Document struct {
	Properties []Property `yaml:"properties"`
	Classes    []Class    `yaml:"classes"`
}

type Property struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Values []string `yaml:"values,omitempty"`
}

type Class struct {
	Name  string      `yaml:"name"`
	Props []ClassProp `yaml:"props,omitempty"`
}

// ClassProp is the activation of one property for a class.
// Active and Values use "on"/"off".
type ClassProp struct {
	Name   string            `yaml:"name"`
	Active string            `yaml:"active,omitempty"`
	Values map[string]string `yaml:"values,omitempty"`
	Range  *model.Range      `yaml:"range,omitempty"`
}

// Stats counts what an import changed
type Stats struct {
	Properties int
	Values     int
	Classes    int
	Entries    int
}

// Decode parses a document
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, errors.Wrap(err, "decode knowledge file")
	}
	return &doc, nil
}

// ReadFile decodes the document at path
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open knowledge file")
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Encode writes doc as YAML
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode knowledge file")
	}
	return enc.Close()
}

// Import applies doc to the store. Registry entries that already exist are
// kept, so importing the same file twice is harmless. Activation entries
// always overwrite.
func Import(ctx context.Context, s *kb.Store, doc *Document) (Stats, error) {
	var st Stats

	for _, p := range doc.Properties {
		kind, err := model.ParsePropertyKind(p.Type)
		if err != nil {
			return st, errors.Wrapf(err, "property %q", p.Name)
		}
		created, err := ignoreConflict(s.AddProperty(ctx, p.Name, kind))
		if err != nil {
			return st, errors.Wrapf(err, "property %q", p.Name)
		}
		if created {
			st.Properties++
		} else if existing, ok := s.Snapshot().Property(p.Name); ok && existing.Kind != kind {
			return st, model.NewValidationError("type", "property %q already exists as %s, document declares %s", p.Name, existing.Kind, kind)
		}
		for _, v := range p.Values {
			created, err := ignoreConflict(s.AddValue(ctx, p.Name, v))
			if err != nil {
				return st, errors.Wrapf(err, "value %q of %q", v, p.Name)
			}
			if created {
				st.Values++
			}
		}
	}

	for _, c := range doc.Classes {
		created, err := ignoreConflict(s.AddClass(ctx, c.Name))
		if err != nil {
			return st, errors.Wrapf(err, "class %q", c.Name)
		}
		if created {
			st.Classes++
		}

		for _, cp := range c.Props {
			n, err := applyClassProp(ctx, s, c.Name, cp)
			if err != nil {
				return st, errors.Wrapf(err, "class %q property %q", c.Name, cp.Name)
			}
			st.Entries += n
		}
	}

	return st, nil
}

func applyClassProp(ctx context.Context, s *kb.Store, class string, cp ClassProp) (int, error) {
	n := 0
	if cp.Active != "" {
		state, err := model.ParseState(cp.Active)
		if err != nil {
			return n, err
		}
		if err := s.SetPropertyActivation(ctx, class, cp.Name, state); err != nil {
			return n, err
		}
		n++
	}

	labels := make([]string, 0, len(cp.Values))
	for label := range cp.Values {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		state, err := model.ParseState(cp.Values[label])
		if err != nil {
			return n, err
		}
		if err := s.SetValueActivation(ctx, class, cp.Name, label, state); err != nil {
			return n, err
		}
		n++
	}

	if cp.Range != nil {
		if err := s.SetPropertyRange(ctx, class, cp.Name, cp.Range.Min, cp.Range.Max); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func ignoreConflict(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrConflict) {
		return false, nil
	}
	return false, err
}

// Export renders the configured part of a snapshot
func Export(snap *kb.Snapshot) *Document {
	dump := snap.Dump()
	doc := &Document{}

	for _, p := range dump.Properties {
		doc.Properties = append(doc.Properties, Property{Name: p.Name, Type: string(p.Kind), Values: p.Values})
	}
	for _, c := range dump.Classes {
		out := Class{Name: c.Name}
		for _, pd := range c.Props {
			cp := ClassProp{Name: pd.Name, Range: pd.Range}
			if pd.Property != model.StateUnset {
				cp.Active = pd.Property.String()
			}
			if len(pd.Values) > 0 {
				cp.Values = make(map[string]string, len(pd.Values))
				for _, v := range pd.Values {
					cp.Values[v.Label] = v.State.String()
				}
			}
			out.Props = append(out.Props, cp)
		}
		doc.Classes = append(doc.Classes, out)
	}
	return doc
}
