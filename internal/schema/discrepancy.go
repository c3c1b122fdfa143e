package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/table"
)

// DiscrepancyKind tags the variant of a Discrepancy.
type DiscrepancyKind string

const (
	// MissingColumn: the schema declares a column the table does not have.
	MissingColumn DiscrepancyKind = "missing_column"

	// UnexpectedColumn: the table has a column the schema does not declare.
	UnexpectedColumn DiscrepancyKind = "unexpected_column"

	// OrderMismatch: the right columns are present but in the wrong order.
	OrderMismatch DiscrepancyKind = "order_mismatch"

	// TypeMismatch: a column's runtime type differs from its declared type.
	TypeMismatch DiscrepancyKind = "type_mismatch"

	// UncoercibleCast: a requested cast was rejected as lossy/incompatible,
	// or an attempted safe cast failed on actual values.
	UncoercibleCast DiscrepancyKind = "uncoercible_cast"
)

// Discrepancy is one self-describing problem found while checking a table
// against a schema. Every variant carries enough detail (column name plus
// expected/actual types or positions) for a human or a CI report to act on
// it without re-running the check.
type Discrepancy struct {
	Kind   DiscrepancyKind
	Column string

	// Expected and Actual are set for TypeMismatch and UncoercibleCast.
	Expected dtype.Type
	Actual   dtype.Type

	// ExpectedIndex and ActualIndex are set for OrderMismatch.
	ExpectedIndex int
	ActualIndex   int

	// Reason is set for UncoercibleCast: why the cast was rejected, or the
	// underlying per-value failure when a cast was attempted and failed.
	Reason string
}

func (d Discrepancy) String() string {
	switch d.Kind {
	case MissingColumn:
		return fmt.Sprintf("missing column %q", d.Column)
	case UnexpectedColumn:
		return fmt.Sprintf("unexpected column %q", d.Column)
	case OrderMismatch:
		return fmt.Sprintf("column %q is at position %d, expected position %d",
			d.Column, d.ActualIndex, d.ExpectedIndex)
	case TypeMismatch:
		return fmt.Sprintf("column %q should be %s but is %s", d.Column, d.Expected, d.Actual)
	case UncoercibleCast:
		return fmt.Sprintf("column %q cannot be cast from %s to %s: %s",
			d.Column, d.Actual, d.Expected, d.Reason)
	default:
		return fmt.Sprintf("column %q: unknown discrepancy", d.Column)
	}
}

// MarshalJSON emits only the fields meaningful for the variant, with types
// in their canonical string form, keeping API/CI payloads compact.
func (d Discrepancy) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"kind":   d.Kind,
		"column": d.Column,
	}
	switch d.Kind {
	case OrderMismatch:
		out["expected_index"] = d.ExpectedIndex
		out["actual_index"] = d.ActualIndex
	case TypeMismatch:
		out["expected"] = d.Expected.String()
		out["actual"] = d.Actual.String()
	case UncoercibleCast:
		out["expected"] = d.Expected.String()
		out["actual"] = d.Actual.String()
		out["reason"] = d.Reason
	}
	return json.Marshal(out)
}

// Outcome is the result of a Validate or Coerce call: either a conforming
// table handle, or the full ordered list of discrepancies found.
type Outcome struct {
	table         table.Table
	discrepancies []Discrepancy
}

func conforming(t table.Table) *Outcome {
	return &Outcome{table: t}
}

func rejected(ds []Discrepancy) *Outcome {
	return &Outcome{discrepancies: ds}
}

// Conforming reports whether the table satisfied the schema.
func (o *Outcome) Conforming() bool {
	return len(o.discrepancies) == 0
}

// Table returns the accepted table handle. For Validate this is the input
// table unchanged; for Coerce it may be a newly derived table. It is nil
// when the outcome is rejected.
func (o *Outcome) Table() table.Table {
	return o.table
}

// Discrepancies returns every problem found, in a deterministic order:
// shape problems first (schema order), then order and type problems by
// schema position. Empty when the outcome is conforming.
func (o *Outcome) Discrepancies() []Discrepancy {
	return o.discrepancies
}

// Err returns nil for a conforming outcome, or a *ValidationError carrying
// all discrepancies — the ergonomic form for call sites that just want an
// error to log or fail CI with.
func (o *Outcome) Err() error {
	if o.Conforming() {
		return nil
	}
	return &ValidationError{Discrepancies: o.discrepancies}
}

// ValidationError aggregates every discrepancy of a rejected outcome into
// a single error value.
type ValidationError struct {
	Discrepancies []Discrepancy
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "schema validation failed with %d discrepanc", len(e.Discrepancies))
	if len(e.Discrepancies) == 1 {
		sb.WriteString("y")
	} else {
		sb.WriteString("ies")
	}
	for _, d := range e.Discrepancies {
		sb.WriteString("\n  - ")
		sb.WriteString(d.String())
	}
	return sb.String()
}
