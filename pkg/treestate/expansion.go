package treestate

import (
	"errors"

	"github.com/vanderheijden86/categorytree/pkg/logging"
)

// Expansion owns the set of expanded category ids. Every mutation is saved
// through the persistence port and then reported to the observer, in the
// order the mutations happen.
type Expansion struct {
	set      Set
	universe []int
	port     Persistence
	observer func(Set)

	// defaulted is true while the set is the "all expanded" fallback and the
	// user has not changed it yet.
	defaulted bool
}

// NewExpansion loads the saved set from port. If nothing is saved, or the
// saved value is unreadable, every id in universe starts expanded. A nil port
// keeps state in memory only. observer may be nil.
func NewExpansion(port Persistence, universe []int, observer func(Set)) *Expansion {
	e := &Expansion{
		universe: append([]int(nil), universe...),
		port:     port,
		observer: observer,
	}
	if port != nil {
		set, err := port.Load()
		switch {
		case err == nil:
			e.set = set
			return e
		case errors.Is(err, ErrNoState):
		default:
			logging.Named("expansion").Debugw("ignoring unreadable expansion state", "error", err)
		}
	}
	e.set = NewSet(universe...)
	e.defaulted = true
	return e
}

// IsExpanded reports whether id is expanded.
func (e *Expansion) IsExpanded(id int) bool {
	return e.set.Has(id)
}

// Set returns a copy of the expanded ids.
func (e *Expansion) Set() Set {
	return e.set.Clone()
}

// Len returns the number of expanded ids.
func (e *Expansion) Len() int {
	return len(e.set)
}

// Toggle flips id in the set.
func (e *Expansion) Toggle(id int) {
	if e.set.Has(id) {
		delete(e.set, id)
	} else {
		e.set[id] = struct{}{}
	}
	e.commit()
}

// Expand adds id. Adding an id that is already present is not a mutation.
func (e *Expansion) Expand(id int) {
	if e.set.Has(id) {
		return
	}
	e.set[id] = struct{}{}
	e.commit()
}

// Collapse removes id. Removing an absent id is not a mutation.
func (e *Expansion) Collapse(id int) {
	if !e.set.Has(id) {
		return
	}
	delete(e.set, id)
	e.commit()
}

// ExpandPath expands every id in ids with a single save.
func (e *Expansion) ExpandPath(ids []int) {
	changed := false
	for _, id := range ids {
		if !e.set.Has(id) {
			e.set[id] = struct{}{}
			changed = true
		}
	}
	if changed {
		e.commit()
	}
}

// ApplyExpandAll replaces the whole set with the id universe (true) or the
// empty set (false).
func (e *Expansion) ApplyExpandAll(expand bool) {
	if expand {
		e.set = NewSet(e.universe...)
	} else {
		e.set = NewSet()
	}
	e.commit()
}

// SetUniverse records the ids of a new category collection. The expanded set
// is kept as is, except while it is still the untouched fallback, in which
// case it follows the universe so late-loaded categories also start expanded.
func (e *Expansion) SetUniverse(ids []int) {
	e.universe = append([]int(nil), ids...)
	if e.defaulted {
		e.set = NewSet(ids...)
	}
}

// Universe returns the ids expand-all would expand.
func (e *Expansion) Universe() []int {
	return append([]int(nil), e.universe...)
}

func (e *Expansion) commit() {
	e.defaulted = false
	if e.port != nil {
		if err := e.port.Save(e.set); err != nil {
			logging.Named("expansion").Warnw("saving expansion state", "error", err)
		}
	}
	if e.observer != nil {
		e.observer(e.set.Clone())
	}
}
