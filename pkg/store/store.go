// Package store loads category forests and applies structural mutations to
// them. Stores stand in for the external mutation layer: the tree only sends
// move, rename and delete requests and re-renders whatever the store returns.
package store

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/categorytree/pkg/config"
	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// ErrNotFound is returned when a mutation names an unknown category.
var ErrNotFound = hierarchy.ErrNotFound

// Source provides category snapshots.
type Source interface {
	// Load returns a fresh forest. Callers own the result.
	Load(ctx context.Context) (*hierarchy.Forest, error)
	// Path is the file backing the source, used for watching and titles.
	Path() string
}

// Mutator applies changes requested by the tree.
type Mutator interface {
	Move(ctx context.Context, req model.MoveRequest) error
	Rename(ctx context.Context, id int, name string) error
	Delete(ctx context.Context, id int) error
}

// Store is a Source that also accepts mutations.
type Store interface {
	Source
	Mutator
	// Replace overwrites the whole collection, e.g. when importing.
	Replace(ctx context.Context, f *hierarchy.Forest) error
	Close() error
}

// Open returns the store for kind at path.
func Open(kind, path string) (Store, error) {
	switch kind {
	case config.SourceJSON, "":
		return NewJSONStore(path), nil
	case config.SourceSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}
