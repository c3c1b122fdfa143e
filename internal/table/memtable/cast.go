package memtable

import (
	"fmt"
	"math"

	"github.com/koustreak/FrameCheck/internal/dtype"
)

// checkValue verifies that v uses the canonical representation for t.
// nil is always accepted as a missing value.
func checkValue(t dtype.Type, v any) error {
	if v == nil {
		return nil
	}

	switch t.Kind {
	case dtype.KindBool:
		if _, ok := v.(bool); !ok {
			return repError(t, v)
		}
	case dtype.KindInt8, dtype.KindInt16, dtype.KindInt32, dtype.KindInt64,
		dtype.KindDate, dtype.KindDatetime, dtype.KindDuration:
		n, ok := v.(int64)
		if !ok {
			return repError(t, v)
		}
		if t.Kind.IsInteger() && !fitsSigned(n, t.Kind) {
			return fmt.Errorf("value %d out of range for %s", n, t)
		}
	case dtype.KindUInt8, dtype.KindUInt16, dtype.KindUInt32, dtype.KindUInt64:
		n, ok := v.(uint64)
		if !ok {
			return repError(t, v)
		}
		if !fitsUnsigned(n, t.Kind) {
			return fmt.Errorf("value %d out of range for %s", n, t)
		}
	case dtype.KindFloat32, dtype.KindFloat64:
		if _, ok := v.(float64); !ok {
			return repError(t, v)
		}
	case dtype.KindString:
		if _, ok := v.(string); !ok {
			return repError(t, v)
		}
	case dtype.KindBinary:
		if _, ok := v.([]byte); !ok {
			return repError(t, v)
		}
	case dtype.KindList:
		elems, ok := v.([]any)
		if !ok {
			return repError(t, v)
		}
		for i, e := range elems {
			if err := checkValue(*t.Elem, e); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unsupported type %s", t)
	}
	return nil
}

func repError(t dtype.Type, v any) error {
	return fmt.Errorf("value %v (%T) is not a valid %s representation", v, v, t)
}

// convertValue converts one value from its current type to the target type.
// The conversion is mechanical: any pair of types with a meaningful value
// mapping is converted, with per-value range and exactness checks so no
// information is ever silently lost. Policy (which casts are allowed at all)
// lives in the coercer, not here.
func convertValue(from, to dtype.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if from.Equal(to) {
		return v, nil
	}
	if err := checkValue(from, v); err != nil {
		return nil, err
	}

	fk, tk := from.Kind, to.Kind

	switch {
	case fk.IsSigned() && tk.IsInteger():
		return convertSigned(v.(int64), tk)

	case fk.IsUnsigned() && tk.IsInteger():
		return convertUnsigned(v.(uint64), tk)

	case fk.IsSigned() && tk.IsFloat():
		return float64(v.(int64)), nil

	case fk.IsUnsigned() && tk.IsFloat():
		return float64(v.(uint64)), nil

	case fk.IsFloat() && tk.IsFloat():
		// Both representations are float64; float64→float32 must survive
		// the round trip through the narrower type.
		f := v.(float64)
		if tk == dtype.KindFloat32 && !math.IsNaN(f) && !math.IsInf(f, 0) &&
			float64(float32(f)) != f {
			return nil, fmt.Errorf("value %v is not representable in float32", f)
		}
		return f, nil

	case fk.IsFloat() && tk.IsInteger():
		f := v.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
			return nil, fmt.Errorf("value %v has no exact integer representation", f)
		}
		if tk.IsUnsigned() {
			// float64(MaxUint64) rounds up to 2^64, which uint64 cannot
			// hold, so the upper bound is exclusive.
			if f < 0 || f >= float64(math.MaxUint64) {
				return nil, fmt.Errorf("value %v out of range for %s", f, to)
			}
			return convertUnsigned(uint64(f), tk)
		}
		if f < math.MinInt64 || f >= float64(math.MaxInt64) {
			return nil, fmt.Errorf("value %v out of range for %s", f, to)
		}
		return convertSigned(int64(f), tk)

	case fk == dtype.KindDatetime && tk == dtype.KindDatetime && from.Zone == to.Zone,
		fk == dtype.KindDuration && tk == dtype.KindDuration:
		return rescaleTicks(v.(int64), from.Unit, to.Unit)

	case fk == dtype.KindDate && tk == dtype.KindDatetime && to.Zone == "":
		days := v.(int64)
		return mulOverflow(days, 86_400*to.Unit.PerSecond())

	case fk == dtype.KindList && tk == dtype.KindList:
		elems := v.([]any)
		out := make([]any, len(elems))
		for i, e := range elems {
			converted, err := convertValue(*from.Elem, *to.Elem, e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = converted
		}
		return out, nil
	}

	return nil, fmt.Errorf("no conversion from %s to %s", from, to)
}

func convertSigned(n int64, tk dtype.Kind) (any, error) {
	if tk.IsSigned() {
		if !fitsSigned(n, tk) {
			return nil, fmt.Errorf("value %d out of range for %s", n, tk)
		}
		return n, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("value %d out of range for %s", n, tk)
	}
	u := uint64(n)
	if !fitsUnsigned(u, tk) {
		return nil, fmt.Errorf("value %d out of range for %s", n, tk)
	}
	return u, nil
}

func convertUnsigned(u uint64, tk dtype.Kind) (any, error) {
	if tk.IsUnsigned() {
		if !fitsUnsigned(u, tk) {
			return nil, fmt.Errorf("value %d out of range for %s", u, tk)
		}
		return u, nil
	}
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("value %d out of range for %s", u, tk)
	}
	n := int64(u)
	if !fitsSigned(n, tk) {
		return nil, fmt.Errorf("value %d out of range for %s", u, tk)
	}
	return n, nil
}

func fitsSigned(n int64, k dtype.Kind) bool {
	switch k {
	case dtype.KindInt8:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case dtype.KindInt16:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case dtype.KindInt32:
		return n >= math.MinInt32 && n <= math.MaxInt32
	default:
		return true
	}
}

func fitsUnsigned(u uint64, k dtype.Kind) bool {
	switch k {
	case dtype.KindUInt8:
		return u <= math.MaxUint8
	case dtype.KindUInt16:
		return u <= math.MaxUint16
	case dtype.KindUInt32:
		return u <= math.MaxUint32
	default:
		return true
	}
}

// rescaleTicks converts a tick count between time units. Coarse→fine must
// not overflow; fine→coarse must divide exactly — truncation is a lossy
// cast and is reported, never performed.
func rescaleTicks(n int64, from, to dtype.TimeUnit) (any, error) {
	if from == to {
		return n, nil
	}
	if from.PerSecond() < to.PerSecond() {
		factor := to.PerSecond() / from.PerSecond()
		return mulOverflow(n, factor)
	}
	factor := from.PerSecond() / to.PerSecond()
	if n%factor != 0 {
		return nil, fmt.Errorf("tick count %d is not a whole number of %s", n, to)
	}
	return n / factor, nil
}

func mulOverflow(n, factor int64) (any, error) {
	product := n * factor
	if n != 0 && product/n != factor {
		return nil, fmt.Errorf("tick count %d overflows after scaling by %d", n, factor)
	}
	return product, nil
}
