// Package dtype defines the closed set of declared column types used by
// FrameCheck schemas together with the type-compatibility rules between them.
//
// A Type is a small immutable value: a Kind plus, for parameterized kinds,
// a time unit, a time zone, or an element type. Equality is structural and
// includes every parameter — datetime[us, UTC] and datetime[us] are two
// different types.
package dtype

import (
	"fmt"
	"strings"
)

// Kind identifies a declared type's top-level tag.
type Kind int

const (
	KindInvalid Kind = iota

	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	KindDate
	KindDatetime // parameterized: Unit, Zone
	KindDuration // parameterized: Unit
	KindList     // parameterized: Elem
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUInt8:
		return "uint8"
	case KindUInt16:
		return "uint16"
	case KindUInt32:
		return "uint32"
	case KindUInt64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDate:
		return "date"
	case KindDatetime:
		return "datetime"
	case KindDuration:
		return "duration"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// IsInteger reports whether the kind is a signed or unsigned integer.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	}
	return false
}

// IsSigned reports whether the kind is a signed integer.
func (k Kind) IsSigned() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// IsUnsigned reports whether the kind is an unsigned integer.
func (k Kind) IsUnsigned() bool {
	switch k {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	}
	return false
}

// IsFloat reports whether the kind is a floating-point type.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// IsNumeric reports whether the kind is an integer or floating-point type.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// Bits returns the width of a numeric kind in bits.
// It panics for non-numeric kinds — callers must check IsNumeric first.
func (k Kind) Bits() int {
	switch k {
	case KindInt8, KindUInt8:
		return 8
	case KindInt16, KindUInt16:
		return 16
	case KindInt32, KindUInt32, KindFloat32:
		return 32
	case KindInt64, KindUInt64, KindFloat64:
		return 64
	}
	panic("dtype: Bits called on non-numeric kind " + k.String())
}

// TimeUnit is the resolution of a datetime or duration type.
type TimeUnit int

const (
	UnitMilliseconds TimeUnit = iota
	UnitMicroseconds
	UnitNanoseconds
)

func (u TimeUnit) String() string {
	switch u {
	case UnitMilliseconds:
		return "ms"
	case UnitMicroseconds:
		return "us"
	case UnitNanoseconds:
		return "ns"
	default:
		return "?"
	}
}

// PerSecond returns how many of this unit make up one second.
func (u TimeUnit) PerSecond() int64 {
	switch u {
	case UnitMilliseconds:
		return 1_000
	case UnitMicroseconds:
		return 1_000_000
	default:
		return 1_000_000_000
	}
}

// Type is a declared column type. The zero value is invalid.
type Type struct {
	Kind Kind

	// Unit applies to KindDatetime and KindDuration.
	Unit TimeUnit

	// Zone applies to KindDatetime. Empty means zone-naive.
	Zone string

	// Elem applies to KindList.
	Elem *Type
}

// Non-parameterized types, usable directly in schema declarations.
var (
	Bool    = Type{Kind: KindBool}
	Int8    = Type{Kind: KindInt8}
	Int16   = Type{Kind: KindInt16}
	Int32   = Type{Kind: KindInt32}
	Int64   = Type{Kind: KindInt64}
	UInt8   = Type{Kind: KindUInt8}
	UInt16  = Type{Kind: KindUInt16}
	UInt32  = Type{Kind: KindUInt32}
	UInt64  = Type{Kind: KindUInt64}
	Float32 = Type{Kind: KindFloat32}
	Float64 = Type{Kind: KindFloat64}
	String  = Type{Kind: KindString}
	Binary  = Type{Kind: KindBinary}
	Date    = Type{Kind: KindDate}
)

// Datetime returns a datetime type with the given resolution and time zone.
// Pass zone "" for a zone-naive datetime.
func Datetime(unit TimeUnit, zone string) Type {
	return Type{Kind: KindDatetime, Unit: unit, Zone: zone}
}

// Duration returns a duration type with the given resolution.
func Duration(unit TimeUnit) Type {
	return Type{Kind: KindDuration, Unit: unit}
}

// ListOf returns a list type with the given element type.
func ListOf(elem Type) Type {
	e := elem
	return Type{Kind: KindList, Elem: &e}
}

// Valid reports whether t is a usable declared type.
func (t Type) Valid() bool {
	if t.Kind == KindInvalid {
		return false
	}
	if t.Kind == KindList {
		return t.Elem != nil && t.Elem.Valid()
	}
	return true
}

// Equal reports structural equality including all parameters.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindDatetime:
		return t.Unit == o.Unit && t.Zone == o.Zone
	case KindDuration:
		return t.Unit == o.Unit
	case KindList:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

// String renders the canonical form, e.g. "int64", "datetime[us, UTC]",
// "duration[ms]", "list[int64]". Parse accepts exactly this form.
func (t Type) String() string {
	switch t.Kind {
	case KindDatetime:
		if t.Zone == "" {
			return fmt.Sprintf("datetime[%s]", t.Unit)
		}
		return fmt.Sprintf("datetime[%s, %s]", t.Unit, t.Zone)
	case KindDuration:
		return fmt.Sprintf("duration[%s]", t.Unit)
	case KindList:
		if t.Elem == nil {
			return "list[invalid]"
		}
		return fmt.Sprintf("list[%s]", t.Elem)
	default:
		return t.Kind.String()
	}
}

// MarshalText implements encoding.TextMarshaler using the canonical form,
// so types serialize as plain strings in JSON and YAML payloads.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("dtype: cannot marshal invalid type")
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Matches reports whether the actual type exactly matches the expected type.
// This is the comparison strict validation uses — no casting is considered.
func Matches(actual, expected Type) bool {
	return actual.Equal(expected)
}

// kindByName maps canonical names back to kinds for Parse.
var kindByName = map[string]Kind{
	"boolean": KindBool,
	"bool":    KindBool, // accepted alias
	"int8":    KindInt8,
	"int16":   KindInt16,
	"int32":   KindInt32,
	"int64":   KindInt64,
	"uint8":   KindUInt8,
	"uint16":  KindUInt16,
	"uint32":  KindUInt32,
	"uint64":  KindUInt64,
	"float32": KindFloat32,
	"float64": KindFloat64,
	"string":  KindString,
	"binary":  KindBinary,
	"date":    KindDate,
}

var unitByName = map[string]TimeUnit{
	"ms": UnitMilliseconds,
	"us": UnitMicroseconds,
	"ns": UnitNanoseconds,
}

// Parse converts the canonical string form back into a Type.
// It is the inverse of String and is used by the YAML schema loader.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)

	if k, ok := kindByName[s]; ok {
		return Type{Kind: k}, nil
	}

	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return Type{}, fmt.Errorf("dtype: unknown type %q", s)
	}
	base := s[:open]
	params := s[open+1 : len(s)-1]

	switch base {
	case "datetime":
		unit, zone, err := parseTimeParams(params, true)
		if err != nil {
			return Type{}, fmt.Errorf("dtype: bad datetime parameters in %q: %w", s, err)
		}
		return Datetime(unit, zone), nil

	case "duration":
		unit, _, err := parseTimeParams(params, false)
		if err != nil {
			return Type{}, fmt.Errorf("dtype: bad duration parameters in %q: %w", s, err)
		}
		return Duration(unit), nil

	case "list":
		elem, err := Parse(params)
		if err != nil {
			return Type{}, fmt.Errorf("dtype: bad list element in %q: %w", s, err)
		}
		return ListOf(elem), nil
	}

	return Type{}, fmt.Errorf("dtype: unknown type %q", s)
}

// MustParse is Parse for package-level declarations; it panics on bad input.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseTimeParams(params string, allowZone bool) (TimeUnit, string, error) {
	parts := strings.SplitN(params, ",", 2)
	unit, ok := unitByName[strings.TrimSpace(parts[0])]
	if !ok {
		return 0, "", fmt.Errorf("unknown time unit %q", strings.TrimSpace(parts[0]))
	}
	if len(parts) == 1 {
		return unit, "", nil
	}
	if !allowZone {
		return 0, "", fmt.Errorf("unexpected parameter %q", strings.TrimSpace(parts[1]))
	}
	zone := strings.TrimSpace(parts[1])
	if zone == "" {
		return 0, "", fmt.Errorf("empty time zone")
	}
	return unit, zone, nil
}
