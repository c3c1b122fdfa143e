package source

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/schema"
)

func TestReadCSVInference(t *testing.T) {
	doc := strings.Join([]string{
		"id,price,active,day,note",
		"1,9.99,true,2024-01-01,hello",
		"2,,false,2024-06-15,",
		"3,1.5,true,,world",
	}, "\n")

	tbl, err := ReadCSV(strings.NewReader(doc), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())

	id, _ := tbl.Column("id")
	assert.True(t, id.Type.Equal(dtype.Int64))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, id.Values)

	price, _ := tbl.Column("price")
	assert.True(t, price.Type.Equal(dtype.Float64))
	assert.Equal(t, []any{9.99, nil, 1.5}, price.Values)

	active, _ := tbl.Column("active")
	assert.True(t, active.Type.Equal(dtype.Bool))

	day, _ := tbl.Column("day")
	assert.True(t, day.Type.Equal(dtype.Date))
	assert.Equal(t, []any{int64(19723), int64(19889), nil}, day.Values)

	note, _ := tbl.Column("note")
	assert.True(t, note.Type.Equal(dtype.String))
	assert.Equal(t, []any{"hello", nil, "world"}, note.Values)
}

func TestReadCSVWithDescriptor(t *testing.T) {
	d := schema.MustBuild(
		schema.Col("id", dtype.Int32),
		schema.Col("ts", dtype.Datetime(dtype.UnitMilliseconds, "")),
	)
	doc := "id,ts,extra\n7,2024-05-01 12:00:00,dropme\n"

	tbl, err := ReadCSV(strings.NewReader(doc), CSVOptions{Descriptor: d})
	require.NoError(t, err)

	id, _ := tbl.Column("id")
	assert.True(t, id.Type.Equal(dtype.Int32))
	assert.Equal(t, []any{int64(7)}, id.Values)

	ts, _ := tbl.Column("ts")
	assert.True(t, ts.Type.Equal(dtype.Datetime(dtype.UnitMilliseconds, "")))
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, []any{want}, ts.Values)

	// Columns outside the descriptor stay as strings; the coercer decides
	// what happens to them.
	extra, _ := tbl.Column("extra")
	assert.True(t, extra.Type.Equal(dtype.String))

	// The whole pipeline: coerce what we read to the declared schema.
	outcome, err := schema.Coerce(context.Background(), tbl, d, true)
	require.NoError(t, err)
	assert.True(t, outcome.Conforming())
}

func TestReadCSVErrors(t *testing.T) {
	d := schema.MustBuild(schema.Col("id", dtype.Int64))

	tests := []struct {
		name string
		doc  string
		opts CSVOptions
	}{
		{name: "empty document", doc: ""},
		{name: "ragged record", doc: "a,b\n1\n"},
		{name: "cell violates declared type", doc: "id\nabc\n", opts: CSVOptions{Descriptor: d}},
		{name: "duplicate header", doc: "id,id\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.doc), tt.opts)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err) || errs.IsDuplicateColumn(err),
				"unexpected error kind: %v", err)
		})
	}
}

func TestReadCSVCustomDelimiter(t *testing.T) {
	doc := "a;b\n1;x\n"
	tbl, err := ReadCSV(strings.NewReader(doc), CSVOptions{Comma: ';'})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumCols())
	assert.Equal(t, 1, tbl.NumRows())
}
