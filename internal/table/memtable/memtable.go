// Package memtable provides the eagerly materialized, in-process table
// implementation.
//
// A memtable stores one Go slice per column and is immutable: deriving
// operations (Select, CastColumn) build a new table and share the untouched
// column storage with the original. Values use one canonical Go
// representation per declared kind, so a column's dynamic types never depend
// on which backend produced it:
//
//	boolean             bool
//	int8…int64          int64
//	uint8…uint64        uint64
//	float32/float64     float64
//	string              string
//	binary              []byte
//	date                int64 (days since the Unix epoch)
//	datetime, duration  int64 (in the column type's unit)
//	list[T]             []any of T's representation
//
// nil is permitted in any column and represents a missing value.
package memtable

import (
	"context"
	"fmt"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/schema"
	"github.com/koustreak/FrameCheck/internal/table"
)

// Column is one named, typed column with its values.
type Column struct {
	Name   string
	Type   dtype.Type
	Values []any
}

// Table is an immutable in-memory columnar table.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

var _ table.Table = (*Table)(nil)

// New builds a table from the given columns. It fails with
// errs.ErrKindDuplicateColumn on repeated names and with
// errs.ErrKindInvalidInput on empty names, invalid types, ragged column
// lengths, or values that do not match the column type's representation.
func New(cols ...Column) (*Table, error) {
	t := &Table{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}

	for i, c := range cols {
		if c.Name == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "column name must not be empty")
		}
		if !c.Type.Valid() {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "column %q has an invalid type", c.Name)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateColumn, "column %q declared twice", c.Name)
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"column %q has %d values, expected %d", c.Name, len(c.Values), t.rows)
		}
		for r, v := range c.Values {
			if err := checkValue(c.Type, v); err != nil {
				return nil, errs.Newf(errs.ErrKindInvalidInput,
					"column %q row %d: %v", c.Name, r, err)
			}
		}
		t.index[c.Name] = i
		t.cols[i] = c
	}

	return t, nil
}

// MustNew is New for tests and examples; it panics on error.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a zero-row table whose columns mirror the descriptor.
func Empty(d *schema.Descriptor) *Table {
	specs := d.Columns()
	cols := make([]Column, len(specs))
	for i, s := range specs {
		cols[i] = Column{Name: s.Name, Type: s.Type}
	}
	// A descriptor cannot hold duplicates or invalid types, so New cannot fail.
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) Column { return t.cols[i] }

// Lazy always reports false: a memtable is fully materialized.
func (t *Table) Lazy() bool { return false }

// Columns returns the column names in physical order.
func (t *Table) Columns(_ context.Context) ([]string, error) {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names, nil
}

// TypeOf returns the declared type of the named column.
func (t *Table) TypeOf(_ context.Context, name string) (dtype.Type, error) {
	i, ok := t.index[name]
	if !ok {
		return dtype.Type{}, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
	}
	return t.cols[i].Type, nil
}

// Select returns a new table with exactly the named columns in the given
// order. Column storage is shared with the receiver, never copied.
func (t *Table) Select(_ context.Context, names []string) (table.Table, error) {
	out := &Table{
		cols:  make([]Column, len(names)),
		index: make(map[string]int, len(names)),
		rows:  t.rows,
	}
	for i, name := range names {
		src, ok := t.index[name]
		if !ok {
			return nil, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
		}
		if _, dup := out.index[name]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateColumn, "column %q selected twice", name)
		}
		out.cols[i] = t.cols[src]
		out.index[name] = i
	}
	return out, nil
}

// CastColumn returns a new table with the named column converted to the
// given type. The conversion is applied per value; the first value that
// cannot be represented in the target type fails the whole call with
// errs.ErrKindCastFailed, and the receiver is left untouched.
func (t *Table) CastColumn(_ context.Context, name string, to dtype.Type) (table.Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
	}
	if !to.Valid() {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "invalid target type for column %q", name)
	}

	src := t.cols[i]
	cast := Column{Name: name, Type: to, Values: make([]any, len(src.Values))}
	for r, v := range src.Values {
		converted, err := convertValue(src.Type, to, v)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindCastFailed,
				fmt.Sprintf("column %q row %d: cast %s to %s", name, r, src.Type, to), err)
		}
		cast.Values[r] = converted
	}

	out := &Table{
		cols:  make([]Column, len(t.cols)),
		index: make(map[string]int, len(t.cols)),
		rows:  t.rows,
	}
	copy(out.cols, t.cols)
	for n, idx := range t.index {
		out.index[n] = idx
	}
	out.cols[i] = cast
	return out, nil
}
