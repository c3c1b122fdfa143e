package schema

import (
	"context"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/table"
)

// Coerce transforms a table toward the descriptor and returns the result of
// re-validating it. The transformation may reorder columns to schema order,
// silently drop columns the schema does not declare, and — when cast is
// true — apply casts that are lossless for every representable value
// (dtype.SafeWiden). Coercion never invents data: a missing declared column
// is always rejected. With cast false, any type difference is reported as a
// plain TypeMismatch, like strict checking after the reorder/drop step.
//
// Casts that the compatibility rules reject (Unsafe, Unknown) and safe casts
// that fail on actual values are both reported as UncoercibleCast, each
// carrying the underlying reason. Per-column cast failures are independent:
// one failing column does not stop the others from being attempted, but any
// failure rejects the overall outcome.
//
// The input table is never mutated; a conforming outcome carries a newly
// derived table (or the input itself if no transformation was needed).
func Coerce(ctx context.Context, tbl table.Table, d *Descriptor, cast bool) (*Outcome, error) {
	names, err := tbl.Columns(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}

	var ds []Discrepancy

	// Plan the projection: schema columns in schema order, extras dropped.
	selected := make([]string, 0, d.Len())
	for _, spec := range d.specs {
		if _, ok := present[spec.Name]; !ok {
			ds = append(ds, Discrepancy{Kind: MissingColumn, Column: spec.Name})
			continue
		}
		selected = append(selected, spec.Name)
	}

	// Plan the casts from type metadata alone.
	type plannedCast struct {
		name string
		to   dtype.Type
	}
	var casts []plannedCast
	for _, name := range selected {
		actual, err := tbl.TypeOf(ctx, name)
		if err != nil {
			return nil, err
		}
		expected, _ := d.TypeOf(name)
		if dtype.Matches(actual, expected) {
			continue
		}
		if !cast {
			ds = append(ds, Discrepancy{
				Kind:     TypeMismatch,
				Column:   name,
				Expected: expected,
				Actual:   actual,
			})
			continue
		}
		switch dec := dtype.Castable(actual, expected); dec.Verdict {
		case dtype.SafeWiden:
			casts = append(casts, plannedCast{name: name, to: expected})
		default: // Unsafe or Unknown — never attempted
			ds = append(ds, Discrepancy{
				Kind:     UncoercibleCast,
				Column:   name,
				Expected: expected,
				Actual:   actual,
				Reason:   dec.Reason,
			})
		}
	}

	if len(ds) > 0 {
		return rejected(ds), nil
	}

	out, err := tbl.Select(ctx, selected)
	if err != nil {
		return nil, err
	}

	// Execute the planned casts. A per-value failure rejects that column
	// but the remaining casts still run, so the report covers every
	// problem column in one pass.
	for _, pc := range casts {
		next, err := out.CastColumn(ctx, pc.name, pc.to)
		if err != nil {
			if errs.IsCastFailed(err) {
				actual, terr := out.TypeOf(ctx, pc.name)
				if terr != nil {
					return nil, terr
				}
				ds = append(ds, Discrepancy{
					Kind:     UncoercibleCast,
					Column:   pc.name,
					Expected: pc.to,
					Actual:   actual,
					Reason:   err.Error(),
				})
				continue
			}
			return nil, err
		}
		out = next
	}

	if len(ds) > 0 {
		return rejected(ds), nil
	}

	// Final confirmation: the coerced table must now pass strict
	// validation. This guards against any mismatch introduced by a buggy
	// cast implementation in a table backend.
	return Validate(ctx, out, d)
}
