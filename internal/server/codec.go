package server

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/schema"
	"github.com/koustreak/FrameCheck/internal/table/memtable"
)

// decodeSchema builds a descriptor from the inline schema payload.
func decodeSchema(p schemaPayload) (*schema.Descriptor, error) {
	specs := make([]schema.ColumnSpec, len(p.Columns))
	for i, c := range p.Columns {
		t, err := dtype.Parse(c.Type)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput,
				"schema column "+c.Name+" has an unparseable type", err)
		}
		specs[i] = schema.ColumnSpec{Name: c.Name, Type: t}
	}
	return schema.Build(specs...)
}

// decodeTable builds an in-memory table from the inline table payload.
// Values arrive as the loose JSON forms produced by decodeJSON and are
// converted to the canonical representation for each column's declared type.
func decodeTable(p tablePayload) (*memtable.Table, error) {
	cols := make([]memtable.Column, len(p.Columns))
	for i, c := range p.Columns {
		t, err := dtype.Parse(c.Type)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput,
				"table column "+c.Name+" has an unparseable type", err)
		}
		values := make([]any, len(c.Values))
		for j, raw := range c.Values {
			v, err := decodeValue(t, raw)
			if err != nil {
				return nil, errs.Wrap(errs.ErrKindInvalidInput,
					"table column "+c.Name, err)
			}
			values[j] = v
		}
		cols[i] = memtable.Column{Name: c.Name, Type: t, Values: values}
	}
	return memtable.New(cols...)
}

// encodeTable renders an in-memory table as the inline table payload.
// Canonical values marshal directly: integers and floats as numbers, binary
// as base64, lists as arrays.
func encodeTable(t *memtable.Table) tablePayload {
	cols := make([]columnPayload, t.NumCols())
	for i := range cols {
		col := t.ColumnAt(i)
		values := make([]any, len(col.Values))
		copy(values, col.Values)
		cols[i] = columnPayload{
			Name:   col.Name,
			Type:   col.Type.String(),
			Values: values,
		}
	}
	return tablePayload{Columns: cols}
}

// decodeValue converts one JSON value into the canonical representation for
// the given type. Dates are epoch days and datetimes/durations are ticks in
// the column's unit, all sent as JSON numbers. Binary is base64.
func decodeValue(t dtype.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch {
	case t.Kind == dtype.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected a boolean, got %T", v)
		}
		return b, nil

	case t.Kind.IsSigned() || t.Kind == dtype.KindDate ||
		t.Kind == dtype.KindDatetime || t.Kind == dtype.KindDuration:
		num, ok := v.(json.Number)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected a number, got %T", v)
		}
		n, err := num.Int64()
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "%q is not an integer", num.String())
		}
		return n, nil

	case t.Kind.IsUnsigned():
		num, ok := v.(json.Number)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected a number, got %T", v)
		}
		n, err := strconv.ParseUint(num.String(), 10, 64)
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "%q is not an unsigned integer", num.String())
		}
		return n, nil

	case t.Kind.IsFloat():
		num, ok := v.(json.Number)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected a number, got %T", v)
		}
		f, err := num.Float64()
		if err != nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "%q is not a float", num.String())
		}
		return f, nil

	case t.Kind == dtype.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected a string, got %T", v)
		}
		return s, nil

	case t.Kind == dtype.KindBinary:
		s, ok := v.(string)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected a base64 string, got %T", v)
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid base64 value", err)
		}
		return data, nil

	case t.Kind == dtype.KindList:
		arr, ok := v.([]any)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "expected an array, got %T", v)
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			dv, err := decodeValue(*t.Elem, elem)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	}

	return nil, errs.Newf(errs.ErrKindUnsupportedType, "cannot decode values of type %s", t.String())
}
