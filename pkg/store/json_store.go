package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/loader"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// JSONStore keeps the catalog in a JSON file. A .json file keeps the shape
// it was read in: nested arrays stay nested, parent_id rows stay flat. New
// .json files are written nested, .jsonl files as one flat row per line. A
// missing file is an empty catalog.
type JSONStore struct {
	mu   sync.Mutex
	path string
	flat bool // last read .json file held parent_id rows
}

// NewJSONStore returns a store for path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// Load reads the file into a forest with subtree totals filled in.
func (s *JSONStore) Load(ctx context.Context) (*hierarchy.Forest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *JSONStore) load(ctx context.Context) (*hierarchy.Forest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return hierarchy.New(), nil
	}
	cats, err := loader.LoadCategoriesFromFile(s.path)
	if err != nil {
		return nil, err
	}
	f, err := loader.ToForest(cats)
	if err != nil {
		return nil, fmt.Errorf("building category tree from %s: %w", s.path, err)
	}
	s.flat = len(cats) > 0 && !loader.IsNested(cats)
	f.FillTotals()
	return f, nil
}

// Move applies req and rewrites the file.
func (s *JSONStore) Move(ctx context.Context, req model.MoveRequest) error {
	return s.mutate(ctx, func(f *hierarchy.Forest) error { return f.Apply(req) })
}

// Rename changes a category name.
func (s *JSONStore) Rename(ctx context.Context, id int, name string) error {
	return s.mutate(ctx, func(f *hierarchy.Forest) error { return f.Rename(id, name) })
}

// Delete removes a category and promotes its children to roots.
func (s *JSONStore) Delete(ctx context.Context, id int) error {
	return s.mutate(ctx, func(f *hierarchy.Forest) error { return f.Remove(id) })
}

// Replace writes f as the whole catalog.
func (s *JSONStore) Replace(ctx context.Context, f *hierarchy.Forest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(f)
}

func (s *JSONStore) mutate(ctx context.Context, fn func(*hierarchy.Forest) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return s.write(f)
}

func (s *JSONStore) write(f *hierarchy.Forest) error {
	var data []byte
	var err error
	switch {
	case strings.EqualFold(filepath.Ext(s.path), ".jsonl"):
		data, err = encodeJSONL(f.Flatten())
	case s.flat:
		data, err = json.MarshalIndent(stripDerived(f.Flatten()), "", "  ")
		data = append(data, '\n')
	default:
		data, err = json.MarshalIndent(stripDerived(f.Nested()), "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// stripDerived drops counts the store computes on load, so a saved file
// does not freeze stale totals. Totals supplied by the source are dropped
// too; after a move they no longer match the subtree anyway, and FillTotals
// recomputes them from the direct counts on the next load.
func stripDerived(cats []model.Category) []model.Category {
	for i := range cats {
		cats[i].TotalProductCount = nil
		cats[i].ChildCount = nil
		cats[i].Children = stripDerived(cats[i].Children)
	}
	return cats
}

func encodeJSONL(rows []model.Category) ([]byte, error) {
	var buf bytes.Buffer
	for _, r := range stripDerived(rows) {
		line, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
