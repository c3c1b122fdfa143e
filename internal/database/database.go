// Package database defines the SQL access layer behind FrameCheck's lazy
// tables.
//
// The DB interface is the central contract for all database operations.
// Layers above this package (sqltable, examples, server) talk only to this
// interface — they never import the postgres or mysql packages directly.
// Each driver maps its native errors into *errs.Error so callers can use
// the errs.Is* predicates without knowing which engine they are on.
package database

import (
	"context"

	"github.com/koustreak/FrameCheck/internal/errs"
)

// DB is the read-only contract all database drivers implement.
// FrameCheck only ever reads: column metadata for schema checks, and row
// data when a lazy table is materialized.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// ListTables returns all user-defined table names in the connected
	// schema/database.
	ListTables(ctx context.Context) ([]string, error)

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// DescribeTable returns the table's columns in ordinal position order,
	// with their native database type names. It fails with
	// errs.ErrKindNotFound when the table does not exist.
	// This requires a catalog round-trip — callers should cache the result.
	DescribeTable(ctx context.Context, table string) ([]ColumnMeta, error)

	// Dialect identifies the SQL dialect for query building.
	Dialect() Dialect
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}

// ColumnMeta describes one column of a physical table as the database
// catalog reports it.
type ColumnMeta struct {
	Name     string
	DBType   string // native type name, e.g. "bigint", "timestamp with time zone"
	Nullable bool
	Position int // 1-based ordinal position
}

// ScanAll reads every row from the result set into a slice of maps keyed by
// column name. It always closes the Rows — callers do not call Close().
// The returned slice is non-nil even for zero rows.
func ScanAll(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}
		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}
	return result, nil
}
