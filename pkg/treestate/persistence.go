package treestate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
)

// DefaultStateKey is the storage key used when none is configured.
const DefaultStateKey = "category-tree-expanded"

// ErrNoState is returned by Load when nothing has been saved under the key.
var ErrNoState = errors.New("no saved expansion state")

// Set is a set of category ids.
type Set map[int]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...int) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s Set) IDs() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Persistence stores the expansion set between runs.
type Persistence interface {
	Load() (Set, error)
	Save(Set) error
}

// FilePersistence keeps one JSON array of ids per key inside Dir, e.g.
// Dir/category-tree-expanded.json. Writes go through a temp file and rename.
type FilePersistence struct {
	Dir string
	Key string
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewFilePersistence returns a file port for key under dir.
func NewFilePersistence(dir, key string) *FilePersistence {
	if key == "" {
		key = DefaultStateKey
	}
	return &FilePersistence{Dir: dir, Key: key}
}

// Path returns the file backing the key.
func (p *FilePersistence) Path() string {
	return filepath.Join(p.Dir, unsafeKeyChars.ReplaceAllString(p.Key, "_")+".json")
}

// Load reads the saved set. A missing file returns ErrNoState. A file that
// does not parse as a JSON array of integers returns a decode error.
func (p *FilePersistence) Load() (Set, error) {
	data, err := os.ReadFile(p.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("reading expansion state: %w", err)
	}
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decoding expansion state: %w", err)
	}
	return NewSet(ids...), nil
}

// Save writes the set as a sorted JSON array.
func (p *FilePersistence) Save(s Set) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := json.Marshal(s.IDs())
	if err != nil {
		return fmt.Errorf("encoding expansion state: %w", err)
	}
	tmp, err := os.CreateTemp(p.Dir, ".expansion-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing expansion state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing expansion state: %w", err)
	}
	if err := os.Rename(tmpName, p.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing expansion state: %w", err)
	}
	return nil
}

// MemoryPersistence keeps raw JSON in memory. Raw is exported so tests can
// plant corrupt values.
type MemoryPersistence struct {
	mu    sync.Mutex
	Raw   []byte
	Saves int
}

// Load decodes the stored value, returning ErrNoState when empty.
func (m *MemoryPersistence) Load() (Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Raw == nil {
		return nil, ErrNoState
	}
	var ids []int
	if err := json.Unmarshal(m.Raw, &ids); err != nil {
		return nil, fmt.Errorf("decoding expansion state: %w", err)
	}
	return NewSet(ids...), nil
}

// Save encodes s.
func (m *MemoryPersistence) Save(s Set) error {
	data, err := json.Marshal(s.IDs())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Raw = data
	m.Saves++
	return nil
}
