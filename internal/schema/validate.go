package schema

import (
	"context"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/table"
)

// Validate checks a table strictly against a descriptor: the table must have
// exactly the declared columns, in schema order, with exactly the declared
// types. No casting is considered.
//
// All discrepancies are collected — never just the first — so a caller can
// fix every problem in one pass. The input table is never modified; a
// conforming outcome carries the original table handle.
//
// The error return is reserved for fatal conditions (the table could not be
// introspected). Expected validation failures are reported in the Outcome.
func Validate(ctx context.Context, tbl table.Table, d *Descriptor) (*Outcome, error) {
	actual, err := introspect(ctx, tbl, d, true)
	if err != nil {
		return nil, err
	}

	var ds []Discrepancy

	// Phase 1: set difference both ways. Strict mode permits neither
	// missing nor extra columns.
	actualSet := make(map[string]struct{}, len(actual))
	for _, c := range actual {
		actualSet[c.Name] = struct{}{}
	}
	for _, spec := range d.specs {
		if _, ok := actualSet[spec.Name]; !ok {
			ds = append(ds, Discrepancy{Kind: MissingColumn, Column: spec.Name})
		}
	}
	extra := make(map[string]struct{})
	for _, c := range actual {
		if !d.Contains(c.Name) {
			extra[c.Name] = struct{}{}
		}
	}
	for _, name := range sortedNames(extra) {
		ds = append(ds, Discrepancy{Kind: UnexpectedColumn, Column: name})
	}

	// Phase 2: positional order, only meaningful once the name sets match.
	// A column is reported when it appears later than its schema position;
	// the columns it displaced are implied and not reported again, so a
	// simple swap yields a single discrepancy.
	if len(ds) == 0 {
		actualIndex := make(map[string]int, len(actual))
		for i, c := range actual {
			actualIndex[c.Name] = i
		}
		for i, spec := range d.specs {
			if actual[i].Name != spec.Name && actualIndex[spec.Name] > i {
				ds = append(ds, Discrepancy{
					Kind:          OrderMismatch,
					Column:        spec.Name,
					ExpectedIndex: i,
					ActualIndex:   actualIndex[spec.Name],
				})
			}
		}
	}

	// Phase 3: exact type identity for every column present in both.
	for _, spec := range d.specs {
		for _, c := range actual {
			if c.Name != spec.Name {
				continue
			}
			if !dtype.Matches(c.Type, spec.Type) {
				ds = append(ds, Discrepancy{
					Kind:     TypeMismatch,
					Column:   spec.Name,
					Expected: spec.Type,
					Actual:   c.Type,
				})
			}
			break
		}
	}

	if len(ds) > 0 {
		return rejected(ds), nil
	}
	return conforming(tbl), nil
}

// introspect reads the table's current columns, in order, with their
// runtime types. When skipUndeclared is set, types are resolved only for
// columns the schema declares — an undeclared column's type is never needed
// and, on lazy tables, never worth the lookup.
func introspect(ctx context.Context, tbl table.Table, d *Descriptor, skipUndeclared bool) ([]ColumnSpec, error) {
	names, err := tbl.Columns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ColumnSpec, len(names))
	for i, name := range names {
		out[i].Name = name
		if skipUndeclared && !d.Contains(name) {
			continue
		}
		t, err := tbl.TypeOf(ctx, name)
		if err != nil {
			return nil, err
		}
		out[i].Type = t
	}
	return out, nil
}
