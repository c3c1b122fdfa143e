package sqltable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/FrameCheck/internal/database"
	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/table"
	"github.com/koustreak/FrameCheck/internal/table/memtable"
)

// Materialize executes the plan and loads the result into an in-memory
// table. Casts run inside the database; a row the database cannot convert
// fails the whole query, which surfaces here as ErrKindCastFailed.
func (t *Table) Materialize(ctx context.Context) (table.Table, error) {
	if err := t.base.resolve(ctx, t.db, t.name); err != nil {
		return nil, err
	}

	names := t.projection
	if names == nil {
		names = t.base.order
	}

	types := make([]dtype.Type, len(names))
	builder := database.Select(t.name, t.db.Dialect()).Columns(names...)
	for i, name := range names {
		if to, ok := t.casts[name]; ok {
			sqlType, err := castTypeName(t.db.Dialect(), to)
			if err != nil {
				return nil, err
			}
			builder.Cast(name, sqlType)
			types[i] = to
			continue
		}
		types[i] = t.base.types[name]
	}

	query, args, err := builder.Build()
	if err != nil {
		return nil, err
	}

	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		if errs.IsQueryFailed(err) && len(t.casts) > 0 {
			return nil, errs.Wrap(errs.ErrKindCastFailed,
				"cast rejected by database", err)
		}
		return nil, err
	}
	defer rows.Close()

	values := make([][]any, len(names))
	for rows.Next() {
		dest := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		for i, raw := range dest {
			v, err := normalizeValue(types[i], raw)
			if err != nil {
				return nil, errs.Wrap(errs.ErrKindQueryFailed,
					"column "+names[i], err)
			}
			values[i] = append(values[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	cols := make([]memtable.Column, len(names))
	for i, name := range names {
		if values[i] == nil {
			values[i] = []any{}
		}
		cols[i] = memtable.Column{Name: name, Type: types[i], Values: values[i]}
	}
	return memtable.New(cols...)
}

// normalizeValue converts a driver-provided value into the canonical
// in-memory representation for the declared type. The MySQL driver returns
// []byte for most columns under the text protocol, so every branch accepts
// the textual form as well.
func normalizeValue(t dtype.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case t.Kind == dtype.KindBool:
		return normalizeBool(v)
	case t.Kind.IsSigned():
		return normalizeSigned(v)
	case t.Kind.IsUnsigned():
		return normalizeUnsigned(v)
	case t.Kind.IsFloat():
		return normalizeFloat(v)
	case t.Kind == dtype.KindString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case t.Kind == dtype.KindBinary:
		switch b := v.(type) {
		case []byte:
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		case string:
			return []byte(b), nil
		}
	case t.Kind == dtype.KindDate:
		return normalizeDate(v)
	case t.Kind == dtype.KindDatetime:
		return normalizeDatetime(t.Unit, v)
	}
	return nil, fmt.Errorf("cannot represent %T as %s", v, t.String())
}

func normalizeBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case []byte:
		s := string(b)
		if s == "0" || strings.EqualFold(s, "false") {
			return false, nil
		}
		if s == "1" || strings.EqualFold(s, "true") {
			return true, nil
		}
	}
	return nil, fmt.Errorf("cannot represent %T as boolean", v)
}

func normalizeSigned(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case []byte:
		parsed, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as integer", string(n))
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("cannot represent %T as integer", v)
}

func normalizeUnsigned(v any) (any, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case int64:
		if n < 0 {
			return nil, fmt.Errorf("negative value %d in unsigned column", n)
		}
		return uint64(n), nil
	case []byte:
		parsed, err := strconv.ParseUint(string(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as unsigned integer", string(n))
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("cannot represent %T as unsigned integer", v)
}

func normalizeFloat(v any) (any, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case []byte:
		parsed, err := strconv.ParseFloat(string(f), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float", string(f))
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("cannot represent %T as float", v)
}

func normalizeDate(v any) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return epochDays(d), nil
	case []byte:
		return parseDate(string(d))
	case string:
		return parseDate(d)
	}
	return nil, fmt.Errorf("cannot represent %T as date", v)
}

func parseDate(s string) (any, error) {
	ts, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as date", s)
	}
	return epochDays(ts), nil
}

func epochDays(ts time.Time) int64 {
	secs := ts.Unix()
	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}
	return days
}

func normalizeDatetime(unit dtype.TimeUnit, v any) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return ticks(unit, d), nil
	case []byte:
		return parseDatetime(unit, string(d))
	case string:
		return parseDatetime(unit, d)
	}
	return nil, fmt.Errorf("cannot represent %T as datetime", v)
}

// MySQL returns DATETIME values in "2006-01-02 15:04:05.999999" form.
func parseDatetime(unit dtype.TimeUnit, s string) (any, error) {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999", time.RFC3339Nano} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ticks(unit, ts), nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as datetime", s)
}

func ticks(unit dtype.TimeUnit, ts time.Time) int64 {
	switch unit {
	case dtype.UnitMilliseconds:
		return ts.UnixMilli()
	case dtype.UnitNanoseconds:
		return ts.UnixNano()
	default:
		return ts.UnixMicro()
	}
}
