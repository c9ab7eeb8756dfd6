package hierarchy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vanderheijden86/categorytree/pkg/model"
)

func TestValidate_Clean(t *testing.T) {
	f := Build(sampleTree())
	problems, err := Validate(f.Flatten())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("expected no problems, got %+v", problems)
	}
}

func TestValidate_Cycles(t *testing.T) {
	flat := []model.Category{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "A", ParentID: model.IntPtr(3)},
		{ID: 3, Name: "B", ParentID: model.IntPtr(2)},
		{ID: 4, Name: "Self", ParentID: model.IntPtr(4)},
	}
	problems, err := Validate(flat)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !reflect.DeepEqual(cycleErr.Cycles, [][]int{{2, 3}, {4}}) {
		t.Errorf("Cycles = %v, want [[2 3] [4]]", cycleErr.Cycles)
	}
	var kinds []string
	for _, p := range problems {
		kinds = append(kinds, p.Kind)
	}
	// The self-parent row is also a field error.
	if !reflect.DeepEqual(kinds, []string{ProblemField, ProblemCycle, ProblemCycle}) {
		t.Errorf("problem kinds = %v", kinds)
	}
}

func TestValidate_DanglingAndFields(t *testing.T) {
	flat := []model.Category{
		{ID: 1, Name: ""},
		{ID: 2, Name: "Lost", ParentID: model.IntPtr(50)},
	}
	problems, err := Validate(flat)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %+v", problems)
	}
	if problems[0].Kind != ProblemField || problems[0].ID != 1 {
		t.Errorf("problem[0] = %+v", problems[0])
	}
	if problems[1].Kind != ProblemDangling || problems[1].ID != 2 {
		t.Errorf("problem[1] = %+v", problems[1])
	}
}

func TestValidate_Duplicate(t *testing.T) {
	_, err := Validate([]model.Category{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}
