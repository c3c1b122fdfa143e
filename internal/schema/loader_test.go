package schema

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/filestore"
)

const eventsYAML = `
name: events
columns:
  - name: id
    type: int64
  - name: amount
    type: float64
  - name: created_at
    type: datetime[us, UTC]
  - name: tags
    type: list[string]
`

func TestParseYAML(t *testing.T) {
	d, err := ParseYAML([]byte(eventsYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount", "created_at", "tags"}, d.Names())

	typ, ok := d.TypeOf("created_at")
	require.True(t, ok)
	assert.True(t, typ.Equal(dtype.Datetime(dtype.UnitMicroseconds, "UTC")))

	typ, ok = d.TypeOf("tags")
	require.True(t, ok)
	assert.True(t, typ.Equal(dtype.ListOf(dtype.String)))
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "{{{"},
		{name: "no columns", doc: "name: empty\ncolumns: []"},
		{name: "unknown type", doc: "columns:\n  - name: id\n    type: varchar"},
		{name: "duplicate column", doc: "columns:\n  - name: id\n    type: int64\n  - name: id\n    type: int64"},
		{name: "empty name", doc: "columns:\n  - name: \"\"\n    type: int64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err) || errs.IsDuplicateColumn(err),
				"unexpected error kind: %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	d, err := Load(strings.NewReader(eventsYAML))
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())
}

// fakeStore is an in-memory filestore.Store serving one bucket.
type fakeStore struct {
	objects map[string][]byte // key → content
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }

func (s *fakeStore) ListBuckets(context.Context) ([]filestore.BucketInfo, error) {
	return []filestore.BucketInfo{{Name: "schemas"}}, nil
}

func (s *fakeStore) ListObjects(_ context.Context, _ string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, opts.Prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	infos := make([]filestore.ObjectInfo, len(keys))
	for i, key := range keys {
		infos[i] = filestore.ObjectInfo{Key: key, Size: int64(len(s.objects[key]))}
	}
	return infos, nil
}

func (s *fakeStore) GetObject(_ context.Context, _ string, key string) (filestore.Object, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "object %q does not exist", key)
	}
	return &fakeObject{
		Reader: bytes.NewReader(data),
		info:   filestore.ObjectInfo{Key: key, Size: int64(len(data))},
	}, nil
}

func (s *fakeStore) StatObject(_ context.Context, _ string, key string) (*filestore.ObjectInfo, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "object %q does not exist", key)
	}
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

type fakeObject struct {
	*bytes.Reader
	info filestore.ObjectInfo
}

func (o *fakeObject) Close() error                { return nil }
func (o *fakeObject) Info() *filestore.ObjectInfo { return &o.info }

func TestLoadFromStore(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{objects: map[string][]byte{"events.yaml": []byte(eventsYAML)}}

	d, err := LoadFromStore(ctx, store, "schemas", "events.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "created_at", "tags"}, d.Names())

	_, err = LoadFromStore(ctx, store, "schemas", "absent.yaml")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestListDeclarations(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{objects: map[string][]byte{
		"events.yaml":  []byte(eventsYAML),
		"orders.yml":   []byte("columns:\n  - name: id\n    type: int64"),
		"readme.txt":   []byte("not a declaration"),
		"dataset.csv":  []byte("id\n1"),
		"nested/a.yml": []byte("columns:\n  - name: a\n    type: bool"),
	}}

	keys, err := ListDeclarations(ctx, store, "schemas")
	require.NoError(t, err)
	assert.Equal(t, []string{"events.yaml", "nested/a.yml", "orders.yml"}, keys)
}
