package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
	"github.com/vanderheijden86/categorytree/pkg/store"
)

func seededJSONStore(t *testing.T) *store.JSONStore {
	t.Helper()
	s := store.NewJSONStore(filepath.Join(t.TempDir(), "categories.json"))
	if err := s.Replace(context.Background(), sampleForest()); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	return s
}

func runResult(t *testing.T, cmdMsg interface{}) MutationResultMsg {
	t.Helper()
	res, ok := cmdMsg.(MutationResultMsg)
	if !ok {
		t.Fatalf("expected MutationResultMsg, got %T", cmdMsg)
	}
	return res
}

func TestCategoryWriter_Move(t *testing.T) {
	s := seededJSONStore(t)
	w := NewCategoryWriter(s)

	req := model.MoveRequest{CategoryID: 4, Position: model.DropInside}
	res := runResult(t, w.Move(req)())
	if !res.Success || res.Operation != OpMove || res.CategoryID != 4 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Status() != "moved 4 to top level" {
		t.Errorf("status = %q", res.Status())
	}

	f, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := f.Get(4); c.ParentID != nil {
		t.Errorf("4 should be top level, parent = %v", *c.ParentID)
	}
}

func TestCategoryWriter_MoveIntoDescendantFails(t *testing.T) {
	w := NewCategoryWriter(seededJSONStore(t))

	res := runResult(t, w.Move(model.MoveRequest{CategoryID: 1, NewParentID: model.IntPtr(4), Position: model.DropInside})())
	if res.Success {
		t.Fatal("moving a category under its descendant must fail")
	}
	if !errors.Is(res.Error, hierarchy.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove, got %v", res.Error)
	}
	if !strings.HasPrefix(res.Status(), "move failed") {
		t.Errorf("status = %q", res.Status())
	}
}

func TestCategoryWriter_RenameAndDelete(t *testing.T) {
	s := seededJSONStore(t)
	w := NewCategoryWriter(s)

	if res := runResult(t, w.Rename(3, "Notebooks")()); !res.Success || res.Status() != "renamed 3" {
		t.Errorf("rename: %+v", res)
	}
	if res := runResult(t, w.Delete(2)()); !res.Success || res.Operation != OpDelete {
		t.Errorf("delete: %+v", res)
	}

	f, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := f.Get(3); c.Name != "Notebooks" {
		t.Errorf("rename not persisted: %q", c.Name)
	}
	if f.Has(2) {
		t.Error("2 should be deleted")
	}
	if c, ok := f.Get(4); !ok || c.ParentID != nil {
		t.Error("children of a deleted category become top level")
	}
}

func TestCategoryWriter_Unknown(t *testing.T) {
	w := NewCategoryWriter(seededJSONStore(t))
	res := runResult(t, w.Rename(99, "x")())
	if res.Success || !errors.Is(res.Error, store.ErrNotFound) {
		t.Errorf("expected not found, got %+v", res)
	}
}

func TestCategoryWriter_Unavailable(t *testing.T) {
	w := NewCategoryWriter(nil)
	if w.IsAvailable() {
		t.Fatal("nil mutator should not be available")
	}
	res := runResult(t, w.Delete(1)())
	if res.Success || !errors.Is(res.Error, errReadOnly) {
		t.Errorf("expected read-only error, got %+v", res)
	}
}

func TestMutationOpString(t *testing.T) {
	tests := []struct {
		op   MutationOp
		want string
	}{
		{OpMove, "move"},
		{OpRename, "rename"},
		{OpDelete, "delete"},
		{MutationOp(9), "op(9)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.op), got, tt.want)
		}
	}
}
