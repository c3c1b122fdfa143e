package sqltable

import (
	"strings"

	"github.com/koustreak/FrameCheck/internal/database"
	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
)

// columnType maps a catalog type name (information_schema data_type) to the
// declared type it is presented as. Types with no faithful representation,
// such as numeric/decimal or intervals, are rejected rather than mapped
// approximately.
func columnType(d database.Dialect, dbType string) (dtype.Type, error) {
	name := strings.ToLower(strings.TrimSpace(dbType))
	var t dtype.Type
	var ok bool
	switch d {
	case database.DialectPostgres:
		t, ok = postgresTypes[name]
	case database.DialectMySQL:
		t, ok = mysqlTypes[name]
	}
	if !ok {
		return dtype.Type{}, errs.Newf(errs.ErrKindUnsupportedType,
			"no declared type for database type %q", dbType)
	}
	return t, nil
}

// Postgres stores timestamps at microsecond precision; timestamptz values
// are stored in UTC and surfaced as such.
var postgresTypes = map[string]dtype.Type{
	"boolean":                     dtype.Bool,
	"smallint":                    dtype.Int16,
	"integer":                     dtype.Int32,
	"bigint":                      dtype.Int64,
	"real":                        dtype.Float32,
	"double precision":            dtype.Float64,
	"text":                        dtype.String,
	"character varying":           dtype.String,
	"character":                   dtype.String,
	"bytea":                       dtype.Binary,
	"date":                        dtype.Date,
	"timestamp without time zone": dtype.Datetime(dtype.UnitMicroseconds, ""),
	"timestamp with time zone":    dtype.Datetime(dtype.UnitMicroseconds, "UTC"),
}

// MySQL information_schema reports unsigned-ness only in COLUMN_TYPE, not
// DATA_TYPE, so integer columns map to their signed declared type. TIMESTAMP
// columns are stored in UTC; DATETIME columns are zone-naive.
var mysqlTypes = map[string]dtype.Type{
	"tinyint":    dtype.Int8,
	"smallint":   dtype.Int16,
	"mediumint":  dtype.Int32,
	"int":        dtype.Int32,
	"integer":    dtype.Int32,
	"bigint":     dtype.Int64,
	"float":      dtype.Float32,
	"double":     dtype.Float64,
	"char":       dtype.String,
	"varchar":    dtype.String,
	"tinytext":   dtype.String,
	"text":       dtype.String,
	"mediumtext": dtype.String,
	"longtext":   dtype.String,
	"binary":     dtype.Binary,
	"varbinary":  dtype.Binary,
	"tinyblob":   dtype.Binary,
	"blob":       dtype.Binary,
	"mediumblob": dtype.Binary,
	"longblob":   dtype.Binary,
	"date":       dtype.Date,
	"datetime":   dtype.Datetime(dtype.UnitMicroseconds, ""),
	"timestamp":  dtype.Datetime(dtype.UnitMicroseconds, "UTC"),
}

// castTypeName maps a declared type to the SQL type name used as a CAST
// target in the given dialect. Types the dialect cannot cast to fail with
// ErrKindCastFailed so callers treat them like any other cast that cannot
// be carried out.
func castTypeName(d database.Dialect, t dtype.Type) (string, error) {
	switch d {
	case database.DialectPostgres:
		if name, ok := postgresCast(t); ok {
			return name, nil
		}
	case database.DialectMySQL:
		if name, ok := mysqlCast(t); ok {
			return name, nil
		}
	}
	return "", errs.Newf(errs.ErrKindCastFailed,
		"dialect cannot cast to %s", t.String())
}

func postgresCast(t dtype.Type) (string, bool) {
	switch t.Kind {
	case dtype.KindBool:
		return "BOOLEAN", true
	case dtype.KindInt16:
		return "SMALLINT", true
	case dtype.KindInt32:
		return "INTEGER", true
	case dtype.KindInt64:
		return "BIGINT", true
	case dtype.KindFloat32:
		return "REAL", true
	case dtype.KindFloat64:
		return "DOUBLE PRECISION", true
	case dtype.KindString:
		return "TEXT", true
	case dtype.KindBinary:
		return "BYTEA", true
	case dtype.KindDate:
		return "DATE", true
	case dtype.KindDatetime:
		if t.Zone == "" {
			return "TIMESTAMP", true
		}
		if t.Zone == "UTC" {
			return "TIMESTAMPTZ", true
		}
	}
	return "", false
}

func mysqlCast(t dtype.Type) (string, bool) {
	switch t.Kind {
	case dtype.KindInt64:
		return "SIGNED", true
	case dtype.KindUInt64:
		return "UNSIGNED", true
	case dtype.KindFloat32:
		return "FLOAT", true
	case dtype.KindFloat64:
		return "DOUBLE", true
	case dtype.KindString:
		return "CHAR", true
	case dtype.KindBinary:
		return "BINARY", true
	case dtype.KindDate:
		return "DATE", true
	case dtype.KindDatetime:
		if t.Zone == "" || t.Zone == "UTC" {
			return "DATETIME", true
		}
	}
	return "", false
}
