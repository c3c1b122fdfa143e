package dtype

import "fmt"

// Verdict classifies whether a value of one declared type can be converted
// into another without losing information. The decision is made from type
// metadata alone — a SafeWiden cast can still fail per value at execution
// time (e.g. a millisecond timestamp too large to represent in nanoseconds);
// those failures are reported by the table backend performing the cast.
type Verdict int

const (
	// NotNeeded means the types already match exactly.
	NotNeeded Verdict = iota

	// SafeWiden means every representable value of the actual type is
	// representable in the expected type.
	SafeWiden

	// Unsafe means the conversion is meaningful but can lose information
	// (narrowing, precision loss, zone changes). It is never attempted.
	Unsafe

	// Unknown means the types are fundamentally incompatible
	// (e.g. string to boolean). It is never attempted.
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case NotNeeded:
		return "not_needed"
	case SafeWiden:
		return "safe_widen"
	case Unsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}

// Decision is the result of a castability check: the verdict plus a
// human-readable reason, preserved so rejected casts stay diagnosable.
type Decision struct {
	Verdict Verdict
	Reason  string
}

func decide(v Verdict, format string, args ...any) Decision {
	return Decision{Verdict: v, Reason: fmt.Sprintf(format, args...)}
}

// Castable decides whether a column of the actual type can be losslessly
// converted into the expected type. Pure function of the two types.
//
// The membership table is deliberately conservative: anything not explicitly
// known to preserve every representable value is Unsafe, and anything
// crossing type classes is Unknown.
func Castable(actual, expected Type) Decision {
	if actual.Equal(expected) {
		return decide(NotNeeded, "types already match")
	}

	ak, ek := actual.Kind, expected.Kind

	switch {
	case ak.IsInteger() && ek.IsInteger():
		return castableIntToInt(ak, ek)

	case ak.IsInteger() && ek.IsFloat():
		return castableIntToFloat(ak, ek)

	case ak.IsFloat() && ek.IsFloat():
		if ak == KindFloat32 && ek == KindFloat64 {
			return decide(SafeWiden, "float32 widens to float64")
		}
		return decide(Unsafe, "float64 to float32 loses precision")

	case ak.IsFloat() && ek.IsInteger():
		return decide(Unsafe, "float to integer discards fractional values")

	case ak == KindDatetime && ek == KindDatetime:
		return castableDatetime(actual, expected)

	case ak == KindDuration && ek == KindDuration:
		return castableUnit(actual.Unit, expected.Unit, "duration")

	case ak == KindDate && ek == KindDatetime:
		if expected.Zone != "" {
			return decide(Unsafe, "date to zoned datetime attaches a time zone")
		}
		return decide(SafeWiden, "date widens to zone-naive datetime")

	case ak == KindList && ek == KindList:
		if actual.Elem == nil || expected.Elem == nil {
			return decide(Unknown, "list with no element type")
		}
		d := Castable(*actual.Elem, *expected.Elem)
		if d.Verdict == NotNeeded {
			// Element types match but the lists didn't Equal above,
			// which cannot happen for well-formed types.
			return Decision{Verdict: NotNeeded, Reason: d.Reason}
		}
		return Decision{Verdict: d.Verdict, Reason: "list element: " + d.Reason}
	}

	return decide(Unknown, "%s and %s are incompatible type classes", actual, expected)
}

func castableIntToInt(ak, ek Kind) Decision {
	aBits, eBits := ak.Bits(), ek.Bits()

	switch {
	case ak.IsSigned() && ek.IsSigned(), ak.IsUnsigned() && ek.IsUnsigned():
		if aBits < eBits {
			return decide(SafeWiden, "%s widens to %s", ak, ek)
		}
		return decide(Unsafe, "%s to %s narrows the value range", ak, ek)

	case ak.IsUnsigned() && ek.IsSigned():
		// The signed target must be strictly wider to hold the full
		// unsigned range (uint8 fits int16, uint32 fits int64, …).
		if aBits < eBits {
			return decide(SafeWiden, "%s widens to %s", ak, ek)
		}
		return decide(Unsafe, "%s does not fit in %s", ak, ek)

	default: // signed → unsigned
		return decide(Unsafe, "%s to %s cannot represent negative values", ak, ek)
	}
}

// castableIntToFloat allows only integer widths that fit the target float's
// mantissa exactly: 24 bits for float32, 53 bits for float64.
func castableIntToFloat(ak, ek Kind) Decision {
	mantissa := 24
	if ek == KindFloat64 {
		mantissa = 53
	}
	magnitude := ak.Bits()
	if ak.IsSigned() {
		magnitude-- // one bit is the sign
	}
	if magnitude <= mantissa {
		return decide(SafeWiden, "%s is exactly representable in %s", ak, ek)
	}
	return decide(Unsafe, "%s exceeds the %s mantissa", ak, ek)
}

func castableDatetime(actual, expected Type) Decision {
	if actual.Zone != expected.Zone {
		return decide(Unsafe, "time zone change %q to %q", actual.Zone, expected.Zone)
	}
	return castableUnit(actual.Unit, expected.Unit, "datetime")
}

// castableUnit compares time resolutions. Converting a coarse unit to a
// finer one multiplies exactly (per-value overflow aside); the reverse
// direction truncates.
func castableUnit(actual, expected TimeUnit, what string) Decision {
	switch {
	case actual == expected:
		return decide(NotNeeded, "units already match")
	case actual.PerSecond() < expected.PerSecond():
		return decide(SafeWiden, "%s[%s] widens to %s[%s]", what, actual, what, expected)
	default:
		return decide(Unsafe, "%s[%s] to %s[%s] truncates", what, actual, what, expected)
	}
}
