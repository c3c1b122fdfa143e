package sqltable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/FrameCheck/internal/database"
	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/table/memtable"
)

// fakeDB is an in-memory database.DB serving one table's catalog metadata
// and a canned result set.
type fakeDB struct {
	dialect     database.Dialect
	metas       []database.ColumnMeta
	missing     bool  // TableExists reports false
	describeErr error // returned by the next DescribeTable call, then cleared
	rowCount    int64
	describes   int

	queriedSQL string
	rows       *fakeRows
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (database.Rows, error) {
	f.queriedSQL = sql
	if f.rows == nil {
		return nil, errs.New(errs.ErrKindQueryFailed, "no result set configured")
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) database.Row {
	f.queriedSQL = sql
	return &fakeRow{value: f.rowCount}
}

func (f *fakeDB) ListTables(context.Context) ([]string, error) { return nil, nil }

func (f *fakeDB) TableExists(context.Context, string) (bool, error) {
	return !f.missing, nil
}

func (f *fakeDB) DescribeTable(_ context.Context, table string) ([]database.ColumnMeta, error) {
	f.describes++
	if f.describeErr != nil {
		err := f.describeErr
		f.describeErr = nil
		return nil, err
	}
	if f.metas == nil {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q does not exist", table)
	}
	return f.metas, nil
}

type fakeRow struct {
	value int64
}

func (r *fakeRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.value
	return nil
}

func (f *fakeDB) Dialect() database.Dialect { return f.dialect }

type fakeRows struct {
	columns []string
	data    [][]any
	pos     int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		*(d.(*any)) = row[i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

func eventsDB() *fakeDB {
	return &fakeDB{
		dialect: database.DialectPostgres,
		metas: []database.ColumnMeta{
			{Name: "id", DBType: "bigint", Position: 1},
			{Name: "amount", DBType: "real", Position: 2},
			{Name: "created_at", DBType: "timestamp with time zone", Position: 3},
		},
	}
}

func TestLazyIntrospection(t *testing.T) {
	ctx := context.Background()
	db := eventsDB()
	tbl := New(db, "events")

	assert.True(t, tbl.Lazy())
	assert.Zero(t, db.describes, "construction must not touch the database")

	names, err := tbl.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "created_at"}, names)

	typ, err := tbl.TypeOf(ctx, "created_at")
	require.NoError(t, err)
	assert.True(t, typ.Equal(dtype.Datetime(dtype.UnitMicroseconds, "UTC")))

	typ, err = tbl.TypeOf(ctx, "id")
	require.NoError(t, err)
	assert.True(t, typ.Equal(dtype.Int64))

	_, err = tbl.TypeOf(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errs.IsColumnNotFound(err))

	assert.Equal(t, 1, db.describes, "catalog metadata must be cached")
}

func TestUnsupportedColumnType(t *testing.T) {
	db := &fakeDB{
		dialect: database.DialectPostgres,
		metas:   []database.ColumnMeta{{Name: "price", DBType: "numeric", Position: 1}},
	}

	_, err := New(db, "prices").Columns(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsUnsupportedType(err))
}

func TestMissingTable(t *testing.T) {
	db := eventsDB()
	db.missing = true

	_, err := New(db, "nope").Columns(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Zero(t, db.describes, "a missing table must not be described")
}

func TestTransientDescribeFailureRetried(t *testing.T) {
	ctx := context.Background()
	db := eventsDB()
	db.describeErr = errs.New(errs.ErrKindConnectionFailed, "connection reset")
	tbl := New(db, "events")

	_, err := tbl.Columns(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))

	// The failure must not be cached: the next call hits the catalog again
	// and succeeds.
	names, err := tbl.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "created_at"}, names)
	assert.Equal(t, 2, db.describes)

	// From here on the schema is cached.
	_, err = tbl.TypeOf(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, 2, db.describes)
}

func TestNumRows(t *testing.T) {
	ctx := context.Background()

	t.Run("postgres", func(t *testing.T) {
		db := eventsDB()
		db.rowCount = 42

		n, err := New(db, "events").NumRows(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
		assert.Equal(t, `SELECT COUNT(*) FROM "events"`, db.queriedSQL)
	})

	t.Run("mysql", func(t *testing.T) {
		db := &fakeDB{dialect: database.DialectMySQL, rowCount: 7}

		n, err := New(db, "orders").NumRows(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		assert.Equal(t, "SELECT COUNT(*) FROM `orders`", db.queriedSQL)
	})
}

func TestSelectAndCastAreDeferred(t *testing.T) {
	ctx := context.Background()
	db := eventsDB()
	tbl := New(db, "events")

	selected, err := tbl.Select(ctx, []string{"created_at", "id"})
	require.NoError(t, err)

	names, err := selected.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at", "id"}, names)

	// Columns outside the projection disappear.
	_, err = selected.TypeOf(ctx, "amount")
	require.Error(t, err)
	assert.True(t, errs.IsColumnNotFound(err))

	// A cast changes the reported type without running any SQL.
	cast, err := selected.CastColumn(ctx, "id", dtype.Int64)
	require.NoError(t, err)
	typ, err := cast.TypeOf(ctx, "id")
	require.NoError(t, err)
	assert.True(t, typ.Equal(dtype.Int64))

	assert.Empty(t, db.queriedSQL, "no plan edit may execute SQL")

	// The original plan is unchanged.
	names, _ = tbl.Columns(ctx)
	assert.Equal(t, []string{"id", "amount", "created_at"}, names)
}

func TestCastColumnRejectsUnmappableTarget(t *testing.T) {
	db := eventsDB()
	tbl := New(db, "events")

	// Postgres has no 8-bit integer to cast to.
	_, err := tbl.CastColumn(context.Background(), "id", dtype.Int8)
	require.Error(t, err)
	assert.True(t, errs.IsCastFailed(err))
}

func TestMaterialize(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	db := eventsDB()
	db.rows = &fakeRows{
		columns: []string{"amount", "created_at"},
		data: [][]any{
			{float32(1.5), created},
			{nil, created.Add(time.Second)},
		},
	}
	tbl := New(db, "events")

	selected, err := tbl.Select(ctx, []string{"amount", "created_at"})
	require.NoError(t, err)
	cast, err := selected.CastColumn(ctx, "amount", dtype.Float64)
	require.NoError(t, err)

	out, err := cast.(*Table).Materialize(ctx)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT CAST("amount" AS DOUBLE PRECISION) AS "amount", "created_at" FROM "events"`,
		db.queriedSQL)

	mt := out.(*memtable.Table)
	assert.False(t, mt.Lazy())
	assert.Equal(t, 2, mt.NumRows())

	amount, ok := mt.Column("amount")
	require.True(t, ok)
	assert.True(t, amount.Type.Equal(dtype.Float64))
	assert.Equal(t, []any{float64(1.5), nil}, amount.Values)

	ts, ok := mt.Column("created_at")
	require.True(t, ok)
	assert.True(t, ts.Type.Equal(dtype.Datetime(dtype.UnitMicroseconds, "UTC")))
	assert.Equal(t, []any{created.UnixMicro(), created.Add(time.Second).UnixMicro()}, ts.Values)
}

func TestMaterializeEmptyTable(t *testing.T) {
	db := eventsDB()
	db.rows = &fakeRows{columns: []string{"id", "amount", "created_at"}}

	out, err := New(db, "events").Materialize(context.Background())
	require.NoError(t, err)

	mt := out.(*memtable.Table)
	assert.Equal(t, 0, mt.NumRows())
	assert.Equal(t, 3, mt.NumCols())
}

func TestNormalizeValueTextProtocol(t *testing.T) {
	// The MySQL driver hands back []byte under the text protocol.
	tests := []struct {
		name string
		typ  dtype.Type
		in   any
		want any
	}{
		{name: "int", typ: dtype.Int64, in: []byte("42"), want: int64(42)},
		{name: "uint", typ: dtype.UInt64, in: []byte("42"), want: uint64(42)},
		{name: "float", typ: dtype.Float64, in: []byte("1.25"), want: float64(1.25)},
		{name: "string", typ: dtype.String, in: []byte("hi"), want: "hi"},
		{name: "bool", typ: dtype.Bool, in: []byte("1"), want: true},
		{name: "date", typ: dtype.Date, in: []byte("2024-01-01"), want: int64(19723)},
		{
			name: "datetime",
			typ:  dtype.Datetime(dtype.UnitMicroseconds, ""),
			in:   []byte("2024-05-01 12:00:00.500000"),
			want: time.Date(2024, 5, 1, 12, 0, 0, 500_000_000, time.UTC).UnixMicro(),
		},
		{name: "null", typ: dtype.Int64, in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeValue(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalizeValue(dtype.Int64, []byte("not a number"))
	assert.Error(t, err)
}
