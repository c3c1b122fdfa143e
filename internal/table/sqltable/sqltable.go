// Package sqltable provides the lazy table implementation backed by a SQL
// database.
//
// A sqltable.Table is a deferred plan over one physical table: Select and
// CastColumn only edit the plan, and nothing touches the database until the
// plan's output schema is needed or the table is materialized. Resolving the
// schema of a lazy table is not free — the first Columns or TypeOf call on a
// given base table costs a catalog round-trip (the result is cached and
// shared by all tables derived from it). Callers validating lazy tables
// should expect that cost and bound it with their own context deadline.
package sqltable

import (
	"context"
	"sync"

	"github.com/koustreak/FrameCheck/internal/database"
	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/table"
)

// Table is a lazy, immutable view over a physical SQL table.
type Table struct {
	db   database.DB
	name string

	// Deferred plan. projection nil means every base column in physical
	// order; casts maps a projected column to its target declared type.
	projection []string
	casts      map[string]dtype.Type

	// base is the resolved physical schema, shared by every table derived
	// from the same New call.
	base *baseSchema
}

var (
	_ table.Table        = (*Table)(nil)
	_ table.Materializer = (*Table)(nil)
)

// New returns a lazy table over the named physical table. No database
// access happens until the table is introspected or materialized.
func New(db database.DB, name string) *Table {
	return &Table{
		db:   db,
		name: name,
		base: &baseSchema{},
	}
}

// baseSchema caches the introspected physical schema of the base table.
// Only a successful introspection is cached: a transient failure (lost
// connection, timeout) must not poison every table derived from the same
// New call.
type baseSchema struct {
	mu       sync.Mutex
	resolved bool
	order    []string
	types    map[string]dtype.Type
}

func (b *baseSchema) resolve(ctx context.Context, db database.DB, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolved {
		return nil
	}

	exists, err := db.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return errs.Newf(errs.ErrKindNotFound, "table %q does not exist", name)
	}

	metas, err := db.DescribeTable(ctx, name)
	if err != nil {
		return err
	}
	types := make(map[string]dtype.Type, len(metas))
	order := make([]string, len(metas))
	for i, m := range metas {
		t, err := columnType(db.Dialect(), m.DBType)
		if err != nil {
			return errs.Wrap(errs.ErrKindUnsupportedType,
				"column "+m.Name+" of table "+name, err)
		}
		order[i] = m.Name
		types[m.Name] = t
	}

	b.order = order
	b.types = types
	b.resolved = true
	return nil
}

// Lazy always reports true: every operation is deferred until Materialize.
func (t *Table) Lazy() bool { return true }

// Columns returns the plan's output column names in order. For an
// unprojected table this resolves the physical schema (one catalog
// round-trip, cached).
func (t *Table) Columns(ctx context.Context) ([]string, error) {
	if t.projection != nil {
		out := make([]string, len(t.projection))
		copy(out, t.projection)
		return out, nil
	}
	if err := t.base.resolve(ctx, t.db, t.name); err != nil {
		return nil, err
	}
	out := make([]string, len(t.base.order))
	copy(out, t.base.order)
	return out, nil
}

// TypeOf returns the declared type the named column will have in the plan's
// output: the cast target if the plan casts it, otherwise the mapped
// physical type.
func (t *Table) TypeOf(ctx context.Context, name string) (dtype.Type, error) {
	visible, err := t.visible(ctx, name)
	if err != nil {
		return dtype.Type{}, err
	}
	if !visible {
		return dtype.Type{}, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
	}
	if to, ok := t.casts[name]; ok {
		return to, nil
	}
	if err := t.base.resolve(ctx, t.db, t.name); err != nil {
		return dtype.Type{}, err
	}
	typ, ok := t.base.types[name]
	if !ok {
		return dtype.Type{}, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
	}
	return typ, nil
}

// Select returns a new lazy table projecting exactly the named columns, in
// the given order. The receiver's plan is not modified.
func (t *Table) Select(ctx context.Context, names []string) (table.Table, error) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		visible, err := t.visible(ctx, name)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
		}
		if _, dup := seen[name]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateColumn, "column %q selected twice", name)
		}
		seen[name] = struct{}{}
	}

	projection := make([]string, len(names))
	copy(projection, names)

	casts := make(map[string]dtype.Type)
	for name, to := range t.casts {
		if _, kept := seen[name]; kept {
			casts[name] = to
		}
	}

	return &Table{
		db:         t.db,
		name:       t.name,
		projection: projection,
		casts:      casts,
		base:       t.base,
	}, nil
}

// CastColumn returns a new lazy table whose plan converts the named column
// to the given type. The cast itself runs inside the database at
// materialization time; per-value failures surface from Materialize.
// CastColumn fails immediately when the dialect has no cast target for the
// type, so an impossible cast is reported before any SQL runs.
func (t *Table) CastColumn(ctx context.Context, name string, to dtype.Type) (table.Table, error) {
	visible, err := t.visible(ctx, name)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
	}
	if _, err := castTypeName(t.db.Dialect(), to); err != nil {
		return nil, err
	}

	casts := make(map[string]dtype.Type, len(t.casts)+1)
	for n, c := range t.casts {
		casts[n] = c
	}
	casts[name] = to

	projection := t.projection
	if projection != nil {
		projection = make([]string, len(t.projection))
		copy(projection, t.projection)
	}

	return &Table{
		db:         t.db,
		name:       t.name,
		projection: projection,
		casts:      casts,
		base:       t.base,
	}, nil
}

// NumRows reports the base table's current row count with a single
// aggregate query. The count is a point-in-time reading of the physical
// table; the plan's projection and casts do not change it.
func (t *Table) NumRows(ctx context.Context) (int64, error) {
	row := t.db.QueryRow(ctx, database.CountQuery(t.name, t.db.Dialect()))
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, errs.Wrap(errs.ErrKindQueryFailed, "count rows of table "+t.name, err)
	}
	return n, nil
}

// visible reports whether the named column is part of the plan's output.
func (t *Table) visible(ctx context.Context, name string) (bool, error) {
	if t.projection != nil {
		for _, n := range t.projection {
			if n == name {
				return true, nil
			}
		}
		return false, nil
	}
	if err := t.base.resolve(ctx, t.db, t.name); err != nil {
		return false, err
	}
	_, ok := t.base.types[name]
	return ok, nil
}
