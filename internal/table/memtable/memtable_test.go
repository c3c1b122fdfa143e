package memtable

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/schema"
)

func TestNew(t *testing.T) {
	tbl, err := New(
		Column{Name: "id", Type: dtype.Int64, Values: []any{int64(1), int64(2)}},
		Column{Name: "name", Type: dtype.String, Values: []any{"a", nil}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
	assert.False(t, tbl.Lazy())

	names, err := tbl.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, names)

	typ, err := tbl.TypeOf(context.Background(), "id")
	require.NoError(t, err)
	assert.True(t, typ.Equal(dtype.Int64))

	_, err = tbl.TypeOf(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errs.IsColumnNotFound(err))
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		cols  []Column
		check func(error) bool
	}{
		{
			name: "duplicate column",
			cols: []Column{
				{Name: "id", Type: dtype.Int64, Values: []any{}},
				{Name: "id", Type: dtype.String, Values: []any{}},
			},
			check: errs.IsDuplicateColumn,
		},
		{
			name:  "empty name",
			cols:  []Column{{Name: "", Type: dtype.Int64, Values: []any{}}},
			check: errs.IsInvalidInput,
		},
		{
			name:  "invalid type",
			cols:  []Column{{Name: "id", Type: dtype.Type{}, Values: []any{}}},
			check: errs.IsInvalidInput,
		},
		{
			name: "ragged lengths",
			cols: []Column{
				{Name: "a", Type: dtype.Int64, Values: []any{int64(1)}},
				{Name: "b", Type: dtype.Int64, Values: []any{int64(1), int64(2)}},
			},
			check: errs.IsInvalidInput,
		},
		{
			name:  "wrong representation",
			cols:  []Column{{Name: "id", Type: dtype.Int64, Values: []any{int32(1)}}},
			check: errs.IsInvalidInput,
		},
		{
			name:  "out of range for narrow type",
			cols:  []Column{{Name: "id", Type: dtype.Int8, Values: []any{int64(1000)}}},
			check: errs.IsInvalidInput,
		},
		{
			name:  "bad list element",
			cols:  []Column{{Name: "xs", Type: dtype.ListOf(dtype.Int64), Values: []any{[]any{"nope"}}}},
			check: errs.IsInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols...)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestEmpty(t *testing.T) {
	d := schema.MustBuild(
		schema.Col("id", dtype.Int64),
		schema.Col("name", dtype.String),
	)

	tbl := Empty(d)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())

	typ, err := tbl.TypeOf(context.Background(), "name")
	require.NoError(t, err)
	assert.True(t, typ.Equal(dtype.String))
}

func TestSelect(t *testing.T) {
	tbl := MustNew(
		Column{Name: "a", Type: dtype.Int64, Values: []any{int64(1)}},
		Column{Name: "b", Type: dtype.String, Values: []any{"x"}},
		Column{Name: "c", Type: dtype.Bool, Values: []any{true}},
	)

	out, err := tbl.Select(context.Background(), []string{"c", "a"})
	require.NoError(t, err)

	names, _ := out.Columns(context.Background())
	assert.Equal(t, []string{"c", "a"}, names)

	// Storage is shared, not copied.
	src, _ := tbl.Column("a")
	dst, _ := out.(*Table).Column("a")
	require.NotEmpty(t, src.Values)
	assert.Same(t, &src.Values[0], &dst.Values[0])

	_, err = tbl.Select(context.Background(), []string{"nope"})
	require.Error(t, err)
	assert.True(t, errs.IsColumnNotFound(err))

	_, err = tbl.Select(context.Background(), []string{"a", "a"})
	require.Error(t, err)
	assert.True(t, errs.IsDuplicateColumn(err))
}

func TestCastColumn(t *testing.T) {
	tbl := MustNew(
		Column{Name: "n", Type: dtype.Int8, Values: []any{int64(1), nil, int64(-5)}},
	)

	out, err := tbl.CastColumn(context.Background(), "n", dtype.Int64)
	require.NoError(t, err)

	c, ok := out.(*Table).Column("n")
	require.True(t, ok)
	assert.True(t, c.Type.Equal(dtype.Int64))
	assert.Equal(t, []any{int64(1), nil, int64(-5)}, c.Values)

	// The receiver keeps its original column.
	orig, _ := tbl.Column("n")
	assert.True(t, orig.Type.Equal(dtype.Int8))
}

func TestCastColumnValueFailures(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		to   dtype.Type
	}{
		{
			name: "value exceeds target range",
			col:  Column{Name: "n", Type: dtype.Int64, Values: []any{int64(12345)}},
			to:   dtype.Int8,
		},
		{
			name: "negative into unsigned",
			col:  Column{Name: "n", Type: dtype.Int64, Values: []any{int64(-1)}},
			to:   dtype.UInt64,
		},
		{
			name: "fractional float into int",
			col:  Column{Name: "f", Type: dtype.Float64, Values: []any{1.5}},
			to:   dtype.Int64,
		},
		{
			name: "float not representable in float32",
			col:  Column{Name: "f", Type: dtype.Float64, Values: []any{1e300}},
			to:   dtype.Float32,
		},
		{
			// float64 cannot represent MaxInt64 exactly; the nearest
			// value is 2^63, one past the range.
			name: "float at 2^63 into int64",
			col:  Column{Name: "f", Type: dtype.Float64, Values: []any{math.Ldexp(1, 63)}},
			to:   dtype.Int64,
		},
		{
			name: "float at 2^64 into uint64",
			col:  Column{Name: "f", Type: dtype.Float64, Values: []any{math.Ldexp(1, 64)}},
			to:   dtype.UInt64,
		},
		{
			name: "ticks do not divide into coarser unit",
			col: Column{Name: "ts", Type: dtype.Datetime(dtype.UnitMicroseconds, ""),
				Values: []any{int64(1500)}},
			to: dtype.Datetime(dtype.UnitMilliseconds, ""),
		},
		{
			name: "no conversion between classes",
			col:  Column{Name: "s", Type: dtype.String, Values: []any{"1"}},
			to:   dtype.Int64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := MustNew(tt.col)
			_, err := tbl.CastColumn(context.Background(), tt.col.Name, tt.to)
			require.Error(t, err)
			assert.True(t, errs.IsCastFailed(err), "unexpected error kind: %v", err)
		})
	}
}

func TestCastColumnMechanicalConversions(t *testing.T) {
	ctx := context.Background()

	t.Run("date to naive datetime", func(t *testing.T) {
		// 19723 days = 2024-01-01.
		tbl := MustNew(Column{Name: "d", Type: dtype.Date, Values: []any{int64(19723)}})
		out, err := tbl.CastColumn(ctx, "d", dtype.Datetime(dtype.UnitMicroseconds, ""))
		require.NoError(t, err)

		c, _ := out.(*Table).Column("d")
		assert.Equal(t, []any{int64(19723 * 86_400 * 1_000_000)}, c.Values)
	})

	t.Run("ms to ns ticks", func(t *testing.T) {
		tbl := MustNew(Column{Name: "ts", Type: dtype.Datetime(dtype.UnitMilliseconds, "UTC"),
			Values: []any{int64(1_700_000_000_000)}})
		out, err := tbl.CastColumn(ctx, "ts", dtype.Datetime(dtype.UnitNanoseconds, "UTC"))
		require.NoError(t, err)

		c, _ := out.(*Table).Column("ts")
		assert.Equal(t, []any{int64(1_700_000_000_000_000_000)}, c.Values)
	})

	t.Run("int to float", func(t *testing.T) {
		tbl := MustNew(Column{Name: "n", Type: dtype.Int32, Values: []any{int64(7)}})
		out, err := tbl.CastColumn(ctx, "n", dtype.Float64)
		require.NoError(t, err)

		c, _ := out.(*Table).Column("n")
		assert.Equal(t, []any{float64(7)}, c.Values)
	})

	t.Run("float at 2^63 fits uint64", func(t *testing.T) {
		tbl := MustNew(Column{Name: "f", Type: dtype.Float64, Values: []any{math.Ldexp(1, 63)}})
		out, err := tbl.CastColumn(ctx, "f", dtype.UInt64)
		require.NoError(t, err)

		c, _ := out.(*Table).Column("f")
		assert.Equal(t, []any{uint64(1) << 63}, c.Values)
	})

	t.Run("list elements recurse", func(t *testing.T) {
		tbl := MustNew(Column{Name: "xs", Type: dtype.ListOf(dtype.Int8),
			Values: []any{[]any{int64(1), int64(2)}, nil}})
		out, err := tbl.CastColumn(ctx, "xs", dtype.ListOf(dtype.Int64))
		require.NoError(t, err)

		c, _ := out.(*Table).Column("xs")
		assert.Equal(t, []any{[]any{int64(1), int64(2)}, nil}, c.Values)
	})

	t.Run("unknown column", func(t *testing.T) {
		tbl := MustNew(Column{Name: "n", Type: dtype.Int64, Values: []any{}})
		_, err := tbl.CastColumn(ctx, "missing", dtype.Int64)
		require.Error(t, err)
		assert.True(t, errs.IsColumnNotFound(err))
	})
}
