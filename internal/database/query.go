package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/FrameCheck/internal/errs"
)

// Dialect controls identifier quoting and placeholder style.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and double-quoted identifiers.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and backtick-quoted identifiers.
	DialectMySQL
)

// SelectBuilder constructs the SELECT statements lazy tables run: a
// projection over a base table, in a caller-chosen column order, with
// optional per-column CAST expressions. Identifiers are always quoted and
// values always parameterized — nothing caller-supplied is interpolated
// into the SQL string.
//
// Usage:
//
//	sql, args, err := Select("events", DialectPostgres).
//	    Columns("id", "amount").
//	    Cast("amount", "BIGINT").
//	    Limit(100).
//	    Build()
//
// produces
//
//	SELECT "id", CAST("amount" AS BIGINT) AS "amount" FROM "events" LIMIT $1
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	casts   map[string]string // column name → SQL type name
	limit   *int
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns, in this order.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Cast wraps the named column in CAST(col AS sqlType) AS col. The column
// must also appear in Columns. sqlType must come from a trusted dialect
// type table, never from user input — it is embedded in the SQL verbatim.
func (b *SelectBuilder) Cast(column, sqlType string) *SelectBuilder {
	if b.casts == nil {
		b.casts = make(map[string]string)
	}
	b.casts[column] = sqlType
	return b
}

// Limit caps the number of rows returned.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any, error) {
	for col := range b.casts {
		if !contains(b.columns, col) {
			return "", nil, errs.Newf(errs.ErrKindInvalidInput,
				"cast column %q is not in the selected column list", col)
		}
	}

	cols := "*"
	if len(b.columns) > 0 {
		parts := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted := quoteIdent(b.dialect, c)
			if sqlType, ok := b.casts[c]; ok {
				parts[i] = fmt.Sprintf("CAST(%s AS %s) AS %s", quoted, sqlType, quoted)
			} else {
				parts[i] = quoted
			}
		}
		cols = strings.Join(parts, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(b.dialect, b.table))

	var args []any
	if b.limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.placeholder(1))
		args = append(args, *b.limit)
	}

	return sb.String(), args, nil
}

// placeholder returns the parameter placeholder for the dialect.
// Postgres: $1, $2, …   MySQL: ? (index is ignored)
func (b *SelectBuilder) placeholder(idx int) string {
	if b.dialect == DialectMySQL {
		return "?"
	}
	return fmt.Sprintf("$%d", idx)
}

// quoteIdent quotes a SQL identifier for the dialect, escaping any embedded
// quote characters. This safely handles reserved words and mixed-case names.
func quoteIdent(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CountQuery returns the row-count statement for a table.
func CountQuery(table string, d Dialect) string {
	return "SELECT COUNT(*) FROM " + quoteIdent(d, table)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
