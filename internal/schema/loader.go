package schema

import (
	"context"
	"io"
	"path"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/FrameCheck/internal/dtype"
	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/filestore"
)

// Declaration is the YAML form of a schema:
//
//	name: events
//	columns:
//	  - name: id
//	    type: int64
//	  - name: created_at
//	    type: datetime[us, UTC]
//
// Column types use dtype's canonical string form.
type Declaration struct {
	Name    string              `yaml:"name"`
	Columns []ColumnDeclaration `yaml:"columns"`
}

// ColumnDeclaration is one column entry of a Declaration.
type ColumnDeclaration struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseYAML builds a Descriptor from a YAML schema declaration. Any problem
// — unparseable document, unknown type, duplicate or empty column name —
// fails immediately: a malformed declaration must never produce a usable
// descriptor.
func ParseYAML(data []byte) (*Descriptor, error) {
	var decl Declaration
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse schema declaration", err)
	}
	if len(decl.Columns) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "schema declaration has no columns")
	}

	specs := make([]ColumnSpec, len(decl.Columns))
	for i, c := range decl.Columns {
		t, err := dtype.Parse(c.Type)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput,
				"schema column "+c.Name+" has an unparseable type", err)
		}
		specs[i] = ColumnSpec{Name: c.Name, Type: t}
	}
	return Build(specs...)
}

// Load reads a YAML schema declaration from r and builds a Descriptor.
func Load(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read schema declaration", err)
	}
	return ParseYAML(data)
}

// LoadFromStore fetches a YAML schema declaration from an object store
// bucket and builds a Descriptor. Teams typically keep declarations next to
// the datasets they describe.
func LoadFromStore(ctx context.Context, store filestore.Store, bucket, key string) (*Descriptor, error) {
	data, err := filestore.ReadObject(ctx, store, bucket, key)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ListDeclarations returns the keys of the YAML schema declarations
// available in a bucket, in the backend's listing order.
func ListDeclarations(ctx context.Context, store filestore.Store, bucket string) ([]string, error) {
	infos, err := store.ListObjects(ctx, bucket, filestore.ListOptions{Recursive: true})
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		switch strings.ToLower(path.Ext(info.Key)) {
		case ".yaml", ".yml":
			keys = append(keys, info.Key)
		}
	}
	return keys, nil
}
