package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/categorytree/pkg/logging"
	"github.com/vanderheijden86/categorytree/pkg/model"
	"github.com/vanderheijden86/categorytree/pkg/store"
)

// MutationOp identifies the kind of store mutation performed
type MutationOp int

const (
	OpMove MutationOp = iota
	OpRename
	OpDelete
)

func (op MutationOp) String() string {
	switch op {
	case OpMove:
		return "move"
	case OpRename:
		return "rename"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// defaultWriteTimeout bounds a single store mutation.
const defaultWriteTimeout = 10 * time.Second

// MutationResultMsg is returned after a store mutation completes
type MutationResultMsg struct {
	Operation  MutationOp
	CategoryID int
	Request    *model.MoveRequest // set for moves
	Success    bool
	Error      error
}

// Status renders the result for the status line.
func (m MutationResultMsg) Status() string {
	if !m.Success {
		return fmt.Sprintf("%s failed: %v", m.Operation, m.Error)
	}
	switch m.Operation {
	case OpMove:
		if m.Request != nil && m.Request.NewParentID == nil {
			return fmt.Sprintf("moved %d to top level", m.CategoryID)
		}
		return fmt.Sprintf("moved %d", m.CategoryID)
	case OpRename:
		return fmt.Sprintf("renamed %d", m.CategoryID)
	default:
		return fmt.Sprintf("deleted %d", m.CategoryID)
	}
}

// CategoryWriter runs store mutations off the UI loop. Each method returns a
// command that performs the write and reports a MutationResultMsg.
type CategoryWriter struct {
	mutator store.Mutator
	timeout time.Duration
}

// NewCategoryWriter wraps m. A nil mutator makes every command fail, which
// keeps read-only sources browsable.
func NewCategoryWriter(m store.Mutator) *CategoryWriter {
	return &CategoryWriter{mutator: m, timeout: defaultWriteTimeout}
}

// IsAvailable returns whether writes can be performed
func (w *CategoryWriter) IsAvailable() bool {
	return w != nil && w.mutator != nil
}

// Move applies a resolved drop.
func (w *CategoryWriter) Move(req model.MoveRequest) tea.Cmd {
	r := req
	return w.run(OpMove, req.CategoryID, &r, func(ctx context.Context) error {
		return w.mutator.Move(ctx, req)
	})
}

// Rename changes a category name.
func (w *CategoryWriter) Rename(id int, name string) tea.Cmd {
	return w.run(OpRename, id, nil, func(ctx context.Context) error {
		return w.mutator.Rename(ctx, id, name)
	})
}

// Delete removes a category. Its children become top-level categories.
func (w *CategoryWriter) Delete(id int) tea.Cmd {
	return w.run(OpDelete, id, nil, func(ctx context.Context) error {
		return w.mutator.Delete(ctx, id)
	})
}

func (w *CategoryWriter) run(op MutationOp, id int, req *model.MoveRequest, fn func(context.Context) error) tea.Cmd {
	if !w.IsAvailable() {
		return w.unavailableCmd(op, id, req)
	}
	timeout := w.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log := logging.Named("writer")
		if err := fn(ctx); err != nil {
			log.Warnw("mutation failed", "op", op.String(), "id", id, "error", err)
			return MutationResultMsg{Operation: op, CategoryID: id, Request: req, Error: err}
		}
		log.Infow("mutation applied", "op", op.String(), "id", id)
		return MutationResultMsg{Operation: op, CategoryID: id, Request: req, Success: true}
	}
}

// errReadOnly is reported when no mutator is configured.
var errReadOnly = errors.New("source is read-only")

// unavailableCmd returns a command that immediately reports writes are not possible
func (w *CategoryWriter) unavailableCmd(op MutationOp, id int, req *model.MoveRequest) tea.Cmd {
	return func() tea.Msg {
		return MutationResultMsg{
			Operation:  op,
			CategoryID: id,
			Request:    req,
			Error:      errReadOnly,
		}
	}
}
