// Package loader reads category files and maintains project housekeeping files.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/logging"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// LoadCategoriesFromFile reads categories from a .json file (an array, either
// nested through "children" or flat with "parent_id") or from a .jsonl file
// with one flat row per line.
func LoadCategoriesFromFile(path string) ([]model.Category, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no categories found at %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open categories file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return ParseJSONL(file)
	}
	return ParseJSON(file)
}

// ParseJSON decodes a JSON array of categories. An empty document is an empty
// collection.
func ParseJSON(r io.Reader) ([]model.Category, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading categories: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var cats []model.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return cats, nil
}

// ParseJSONL decodes one category per line. Malformed lines are skipped and
// logged so a single bad row does not hide the rest of the catalog.
func ParseJSONL(r io.Reader) ([]model.Category, error) {
	var cats []model.Category
	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024 // 1MB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var c model.Category
		if err := json.Unmarshal(line, &c); err != nil {
			logging.Named("loader").Warnw("skipping malformed category line", "line", lineNum, "error", err)
			continue
		}
		cats = append(cats, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}
	return cats, nil
}

// IsNested reports whether any category carries embedded children.
func IsNested(cats []model.Category) bool {
	for i := range cats {
		if len(cats[i].Children) > 0 {
			return true
		}
	}
	return false
}

// ToForest builds a forest from decoded categories. Nested input keeps its
// embedded order; flat input is ordered by sequence.
func ToForest(cats []model.Category) (*hierarchy.Forest, error) {
	if IsNested(cats) {
		return hierarchy.Build(cats), nil
	}
	return hierarchy.FromFlat(cats)
}

// LoadForest reads path and builds its forest.
func LoadForest(path string) (*hierarchy.Forest, error) {
	cats, err := LoadCategoriesFromFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ToForest(cats)
	if err != nil {
		return nil, fmt.Errorf("building category tree from %s: %w", path, err)
	}
	if broken := f.Broken(); len(broken) > 0 {
		logging.Named("loader").Warnw("detached categories with cyclic or duplicate placement", "ids", broken, "path", path)
	}
	return f, nil
}
