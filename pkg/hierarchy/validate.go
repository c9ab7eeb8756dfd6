package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/categorytree/pkg/model"
)

// CycleError lists parent-reference cycles found in flat category rows.
// Each cycle is a sorted list of the ids on it.
type CycleError struct {
	Cycles [][]int
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Cycles))
	for _, c := range e.Cycles {
		ids := make([]string, len(c))
		for i, id := range c {
			ids[i] = fmt.Sprint(id)
		}
		parts = append(parts, "["+strings.Join(ids, " ")+"]")
	}
	return fmt.Sprintf("parent cycle detected: %s", strings.Join(parts, ", "))
}

// Problem is a single finding from Validate.
type Problem struct {
	ID      int    `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Problem kinds reported by Validate
const (
	ProblemField    = "field"
	ProblemDangling = "dangling_parent"
	ProblemCycle    = "cycle"
)

// Validate checks flat category rows for field errors, duplicate ids,
// dangling parent references and parent cycles. Duplicate ids abort early
// with ErrDuplicateID. Cycles are also returned as a *CycleError so callers
// can use errors.As.
func Validate(flat []model.Category) ([]Problem, error) {
	seen := make(map[int]bool, len(flat))
	for _, c := range flat {
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, c.ID)
		}
		seen[c.ID] = true
	}

	var problems []Problem
	g := simple.NewDirectedGraph()
	var cycles [][]int

	for i := range flat {
		c := flat[i].Clone()
		c.Children = nil
		if err := c.Validate(); err != nil {
			problems = append(problems, Problem{ID: c.ID, Kind: ProblemField, Message: err.Error()})
		}
		if g.Node(int64(c.ID)) == nil {
			g.AddNode(simple.Node(c.ID))
		}
		if c.ParentID == nil {
			continue
		}
		pid := *c.ParentID
		switch {
		case pid == c.ID:
			// simple graphs reject self loops, so record it directly
			cycles = append(cycles, []int{c.ID})
		case !seen[pid]:
			problems = append(problems, Problem{
				ID:      c.ID,
				Kind:    ProblemDangling,
				Message: fmt.Sprintf("parent %d does not exist", pid),
			})
		default:
			g.SetEdge(g.NewEdge(simple.Node(pid), simple.Node(c.ID)))
		}
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			for _, component := range unorderable {
				ids := make([]int, 0, len(component))
				for _, n := range component {
					ids = append(ids, int(n.ID()))
				}
				sort.Ints(ids)
				cycles = append(cycles, ids)
			}
		}
	}

	if len(cycles) == 0 {
		return problems, nil
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	for _, c := range cycles {
		problems = append(problems, Problem{
			ID:      c[0],
			Kind:    ProblemCycle,
			Message: fmt.Sprintf("categories %v form a parent cycle", c),
		})
	}
	return problems, &CycleError{Cycles: cycles}
}
