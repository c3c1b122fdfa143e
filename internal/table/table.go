// Package table defines the boundary interface between the schema checker
// and concrete table implementations.
//
// The checker treats a table as an opaque columnar container: it can list the
// columns in order, ask a column's declared type, and derive new tables by
// selecting/reordering columns or casting one column to another type. Two
// implementations ship with FrameCheck: memtable (eagerly materialized,
// in-process) and sqltable (lazy, backed by a SQL database).
package table

import (
	"context"

	"github.com/koustreak/FrameCheck/internal/dtype"
)

// Table is the capability set the validator and coercer require.
//
// Implementations must be immutable: Select and CastColumn return new table
// values and never modify the receiver. All methods take a context because
// lazy implementations may need to reach a remote backend to answer even
// introspection calls — for such tables, Columns and TypeOf can be expensive
// (see Lazy).
type Table interface {
	// Columns returns the table's column names in their current physical
	// (or plan output) order.
	Columns(ctx context.Context) ([]string, error)

	// TypeOf returns the declared type of the named column. It fails with
	// errs.ErrKindColumnNotFound when no such column exists; asking for a
	// column outside the table is a programming error, not a data issue.
	TypeOf(ctx context.Context, name string) (dtype.Type, error)

	// Select returns a table containing exactly the named columns, in the
	// given order. Every name must exist in the receiver.
	Select(ctx context.Context, names []string) (Table, error)

	// CastColumn returns a table with the named column converted to the
	// given type. Eager implementations fail with errs.ErrKindCastFailed
	// when any value cannot be represented in the target type; lazy
	// implementations may defer that failure to materialization.
	CastColumn(ctx context.Context, name string, to dtype.Type) (Table, error)

	// Lazy reports whether the table is backed by a deferred computation.
	// Introspecting a lazy table may require resolving its plan's output
	// schema, which costs a backend round-trip on first use.
	Lazy() bool
}

// Materializer is implemented by lazy tables that can execute their plan
// and produce an eager result.
type Materializer interface {
	Materialize(ctx context.Context) (Table, error)
}
