package hierarchy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vanderheijden86/categorytree/pkg/model"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		req       model.MoveRequest
		wantErr   error
		wantRoots []int
		check     func(t *testing.T, f *Forest)
	}{
		{
			name:      "MoveToRoot",
			req:       model.MoveRequest{CategoryID: 4, Position: model.DropInside},
			wantRoots: []int{1, 5, 4},
			check: func(t *testing.T, f *Forest) {
				if f.HasChildren(2) {
					t.Error("Phones should have no children left")
				}
				c, _ := f.Get(4)
				if c.ParentID != nil {
					t.Error("moved root should have nil ParentID")
				}
			},
		},
		{
			name:      "NestInside",
			req:       model.MoveRequest{CategoryID: 5, NewParentID: model.IntPtr(3), Position: model.DropInside},
			wantRoots: []int{1},
			check: func(t *testing.T, f *Forest) {
				if got := f.Children(3); !reflect.DeepEqual(got, []int{5}) {
					t.Errorf("Children(3) = %v", got)
				}
			},
		},
		{
			name:      "AfterSibling",
			req:       model.MoveRequest{CategoryID: 5, NewParentID: model.IntPtr(1), Position: model.DropAfter, AfterID: model.IntPtr(2)},
			wantRoots: []int{1},
			check: func(t *testing.T, f *Forest) {
				if got := f.Children(1); !reflect.DeepEqual(got, []int{2, 5, 3}) {
					t.Errorf("Children(1) = %v, want [2 5 3]", got)
				}
				for i, id := range f.Children(1) {
					c, _ := f.Get(id)
					if c.Sequence != (i+1)*SequenceStep {
						t.Errorf("Sequence(%d) = %d, want %d", id, c.Sequence, (i+1)*SequenceStep)
					}
				}
			},
		},
		{
			name:    "IntoOwnDescendant",
			req:     model.MoveRequest{CategoryID: 1, NewParentID: model.IntPtr(4), Position: model.DropInside},
			wantErr: ErrInvalidMove,
		},
		{
			name:    "IntoSelf",
			req:     model.MoveRequest{CategoryID: 2, NewParentID: model.IntPtr(2), Position: model.DropInside},
			wantErr: ErrInvalidMove,
		},
		{
			name:    "UnknownCategory",
			req:     model.MoveRequest{CategoryID: 99, Position: model.DropInside},
			wantErr: ErrNotFound,
		},
		{
			name:    "UnknownParent",
			req:     model.MoveRequest{CategoryID: 2, NewParentID: model.IntPtr(99), Position: model.DropInside},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Build(sampleTree())
			before := f.IDs()
			err := f.Apply(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
				}
				if !reflect.DeepEqual(f.IDs(), before) {
					t.Error("failed move must leave the forest untouched")
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() unexpected error: %v", err)
			}
			if got := f.Roots(); !reflect.DeepEqual(got, tt.wantRoots) {
				t.Errorf("Roots() = %v, want %v", got, tt.wantRoots)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}

func TestRemove_PromotesChildren(t *testing.T) {
	f := Build(sampleTree())
	if err := f.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := f.Roots(); !reflect.DeepEqual(got, []int{5, 2, 3}) {
		t.Errorf("Roots() = %v, want [5 2 3]", got)
	}
	if f.Has(1) {
		t.Error("removed category still present")
	}
	c, _ := f.Get(2)
	if c.ParentID != nil {
		t.Error("promoted child should be a root")
	}
	if !f.IsDescendant(2, 4) {
		t.Error("grandchild should stay under its parent")
	}
	if err := f.Remove(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove: expected ErrNotFound, got %v", err)
	}
}

func TestRename(t *testing.T) {
	f := Build(sampleTree())
	if err := f.Rename(5, "Novels"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if c, _ := f.Get(5); c.Name != "Novels" {
		t.Errorf("Name = %q", c.Name)
	}
	if err := f.Rename(5, ""); err == nil {
		t.Error("empty name should be rejected")
	}
	if c, _ := f.Get(5); c.Name != "Novels" {
		t.Error("rejected rename must not change the name")
	}
}

func TestInsert(t *testing.T) {
	f := Build(sampleTree())
	if err := f.Insert(model.Category{ID: 6, Name: "Tablets"}, model.IntPtr(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := f.Children(1); !reflect.DeepEqual(got, []int{2, 3, 6}) {
		t.Errorf("Children(1) = %v", got)
	}
	if err := f.Insert(model.Category{ID: 6, Name: "Dup"}, nil); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := f.Insert(model.Category{ID: 7, Name: "X"}, model.IntPtr(99)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClone_Independent(t *testing.T) {
	f := Build(sampleTree())
	c := f.Clone()
	if err := c.Apply(model.MoveRequest{CategoryID: 4, Position: model.DropInside}); err != nil {
		t.Fatal(err)
	}
	if !f.IsDescendant(2, 4) {
		t.Error("mutating the clone changed the original")
	}
}
