// Package source turns raw datasets into in-memory tables.
//
// The only format currently supported is CSV with a header row. Columns are
// typed either by a schema descriptor supplied by the caller or, when none
// is given, by inference over the cell values.
package source

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/filestore"
	"github.com/koustreak/FrameCheck/internal/schema"
	"github.com/koustreak/FrameCheck/internal/table/memtable"
)

// CSVOptions controls CSV parsing.
type CSVOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// Descriptor, when non-nil, fixes the type of each header column. Cells
	// that cannot be parsed as the declared type fail the read. Header
	// columns absent from the descriptor are read as strings; the reordering
	// and dropping of such columns is the coercer's job, not the reader's.
	Descriptor *schema.Descriptor
}

// ReadCSV parses a CSV document with a header row into an in-memory table.
// Empty cells become missing values.
func ReadCSV(r io.Reader, opts CSVOptions) (*memtable.Table, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errs.New(errs.ErrKindInvalidInput, "csv document is empty")
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read csv header", err)
	}

	cells := make([][]string, len(header))
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read csv record", err)
		}
		for i, cell := range record {
			cells[i] = append(cells[i], cell)
		}
	}

	cols := make([]memtable.Column, len(header))
	for i, name := range header {
		var typ dtype.Type
		if opts.Descriptor != nil {
			declared, ok := opts.Descriptor.TypeOf(name)
			if !ok {
				declared = dtype.String
			}
			typ = declared
		} else {
			typ = inferType(cells[i])
		}

		values := make([]any, len(cells[i]))
		for j, cell := range cells[i] {
			v, err := parseCell(typ, cell)
			if err != nil {
				return nil, errs.Newf(errs.ErrKindInvalidInput,
					"row %d, column %q: %v", j+1, name, err)
			}
			values[j] = v
		}
		cols[i] = memtable.Column{Name: name, Type: typ, Values: values}
	}

	return memtable.New(cols...)
}

// FromStore streams a CSV dataset out of an object store bucket and parses
// it into an in-memory table.
func FromStore(ctx context.Context, store filestore.Store, bucket, key string, opts CSVOptions) (*memtable.Table, error) {
	obj, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return ReadCSV(obj, opts)
}

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.999999999"
)

// inferType picks the narrowest type that every non-empty cell parses as,
// trying bool, int64, float64 and datetime before falling back to string.
// A column with no non-empty cells is a string column.
func inferType(cells []string) dtype.Type {
	nonEmpty := false
	for _, cell := range cells {
		if cell != "" {
			nonEmpty = true
			break
		}
	}
	if !nonEmpty {
		return dtype.String
	}

	candidates := []dtype.Type{
		dtype.Bool,
		dtype.Int64,
		dtype.Float64,
		dtype.Date,
		dtype.Datetime(dtype.UnitMicroseconds, "UTC"),
	}

	for _, candidate := range candidates {
		ok := true
		for _, cell := range cells {
			if cell == "" {
				continue
			}
			if _, err := parseCell(candidate, cell); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return candidate
		}
	}
	return dtype.String
}

// parseCell parses one CSV cell as the given type, returning the canonical
// in-memory value. An empty cell is a missing value for every type.
func parseCell(t dtype.Type, cell string) (any, error) {
	if cell == "" {
		return nil, nil
	}

	switch {
	case t.Kind == dtype.KindBool:
		switch strings.ToLower(cell) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, errs.Newf(errs.ErrKindInvalidInput, "cannot parse %q as boolean", cell)

	case t.Kind.IsSigned():
		n, err := strconv.ParseInt(cell, 10, t.Kind.Bits())
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "cannot parse %q as %s", cell, t.Kind)
		}
		return n, nil

	case t.Kind.IsUnsigned():
		n, err := strconv.ParseUint(cell, 10, t.Kind.Bits())
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "cannot parse %q as %s", cell, t.Kind)
		}
		return n, nil

	case t.Kind.IsFloat():
		f, err := strconv.ParseFloat(cell, t.Kind.Bits())
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "cannot parse %q as %s", cell, t.Kind)
		}
		return f, nil

	case t.Kind == dtype.KindString:
		return cell, nil

	case t.Kind == dtype.KindDate:
		ts, err := time.ParseInLocation(dateLayout, cell, time.UTC)
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "cannot parse %q as date", cell)
		}
		return ts.Unix() / 86400, nil

	case t.Kind == dtype.KindDatetime:
		ts, err := parseTimestamp(cell)
		if err != nil {
			return nil, err
		}
		switch t.Unit {
		case dtype.UnitMilliseconds:
			return ts.UnixMilli(), nil
		case dtype.UnitNanoseconds:
			return ts.UnixNano(), nil
		default:
			return ts.UnixMicro(), nil
		}
	}

	return nil, errs.Newf(errs.ErrKindUnsupportedType, "cannot read csv cells as %s", t.String())
}

func parseTimestamp(cell string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, datetimeLayout} {
		if ts, err := time.ParseInLocation(layout, cell, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errs.Newf(errs.ErrKindInvalidInput, "cannot parse %q as datetime", cell)
}
