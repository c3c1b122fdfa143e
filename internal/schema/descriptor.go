// Package schema declares table schemas and checks tables against them.
//
// A Descriptor is an ordered, immutable set of named, typed columns built
// once (typically at process start) and shared freely across goroutines.
// Validate checks a table strictly against a descriptor; Coerce transforms
// a table (reorder, drop, safely cast) toward it. Both report every problem
// they find as Discrepancy values in an Outcome — expected validation
// failures are never Go errors.
package schema

import (
	"sort"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
)

// ColumnSpec is one declared column: a non-empty name unique within its
// schema, and a declared type.
type ColumnSpec struct {
	Name string
	Type dtype.Type
}

// Col is shorthand for building a ColumnSpec inline.
func Col(name string, t dtype.Type) ColumnSpec {
	return ColumnSpec{Name: name, Type: t}
}

// Descriptor is an ordered mapping from column name to declared type.
// Insertion order is significant: it defines the canonical column order for
// strict validation and for reordering during coercion. Immutable once
// built; safe for concurrent reads without synchronization.
type Descriptor struct {
	specs []ColumnSpec
	index map[string]int
}

// Build constructs a Descriptor from ordered column specs. It fails with
// errs.ErrKindDuplicateColumn if two specs share a name, and with
// errs.ErrKindInvalidInput for empty names or invalid types — a malformed
// schema must never silently produce a usable descriptor.
func Build(specs ...ColumnSpec) (*Descriptor, error) {
	d := &Descriptor{
		specs: make([]ColumnSpec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for i, s := range specs {
		if s.Name == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "schema column name must not be empty")
		}
		if !s.Type.Valid() {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "schema column %q has an invalid type", s.Name)
		}
		if _, dup := d.index[s.Name]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateColumn, "schema column %q declared twice", s.Name)
		}
		d.specs[i] = s
		d.index[s.Name] = i
	}
	return d, nil
}

// MustBuild is Build for package-level schema declarations; it panics on a
// malformed schema, which is a programming error.
func MustBuild(specs ...ColumnSpec) *Descriptor {
	d, err := Build(specs...)
	if err != nil {
		panic(err)
	}
	return d
}

// Extend builds a new descriptor from a base schema followed by extra
// columns, preserving the base column order first. Name collisions between
// base and extra fail like any duplicate.
func Extend(base *Descriptor, extra ...ColumnSpec) (*Descriptor, error) {
	specs := make([]ColumnSpec, 0, len(base.specs)+len(extra))
	specs = append(specs, base.specs...)
	specs = append(specs, extra...)
	return Build(specs...)
}

// Len returns the number of declared columns.
func (d *Descriptor) Len() int { return len(d.specs) }

// Columns returns the declared columns in schema order. The slice is a
// copy — the descriptor itself cannot be mutated through it.
func (d *Descriptor) Columns() []ColumnSpec {
	out := make([]ColumnSpec, len(d.specs))
	copy(out, d.specs)
	return out
}

// Names returns the declared column names in schema order.
func (d *Descriptor) Names() []string {
	out := make([]string, len(d.specs))
	for i, s := range d.specs {
		out[i] = s.Name
	}
	return out
}

// IndexOf returns the schema position of the named column.
func (d *Descriptor) IndexOf(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Contains reports whether the schema declares the named column.
func (d *Descriptor) Contains(name string) bool {
	_, ok := d.index[name]
	return ok
}

// TypeOf returns the declared type of the named column.
func (d *Descriptor) TypeOf(name string) (dtype.Type, bool) {
	i, ok := d.index[name]
	if !ok {
		return dtype.Type{}, false
	}
	return d.specs[i].Type, true
}

// Handle is an opaque column-identifier token generated from a descriptor.
// It carries the column's name and declared type, and is intended to be
// passed around instead of raw strings wherever code refers to a schema
// column. Handles are plain values: comparable, copyable, and free of any
// reference back to the descriptor.
type Handle struct {
	name string
	typ  dtype.Type
}

// Name returns the column name the handle refers to.
func (h Handle) Name() string { return h.name }

// Type returns the column's declared type.
func (h Handle) Type() dtype.Type { return h.typ }

// String returns the column name, so a Handle can be used directly in
// formatted output and name lists.
func (h Handle) String() string { return h.name }

// Handle returns the identifier token for the named column.
func (d *Descriptor) Handle(name string) (Handle, bool) {
	i, ok := d.index[name]
	if !ok {
		return Handle{}, false
	}
	return Handle{name: name, typ: d.specs[i].Type}, true
}

// Handles returns the identifier tokens for every declared column,
// indexed by name.
func (d *Descriptor) Handles() map[string]Handle {
	out := make(map[string]Handle, len(d.specs))
	for _, s := range d.specs {
		out[s.Name] = Handle{name: s.Name, typ: s.Type}
	}
	return out
}

// sortedNames returns the schema's column names in lexical order.
// Used only for deterministic discrepancy ordering in reports.
func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
