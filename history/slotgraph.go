// Package history implements the fork-aware account-history batcher: it
// accumulates account updates optimistically reported for slots that may
// later be abandoned, and emits to account_history only the runs that
// belong to the slot chain that is ultimately rooted.
package history

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// ErrConflictingParent reports an update_slot_parent call that disagrees
// with an edge already recorded. The parent of a slot is immutable, so
// this is a programming-bug-grade invariant violation: the worker pool
// aborts on it unconditionally.
var ErrConflictingParent = errors.New("history: conflicting slot parent")

// SlotGraph maps slot -> parent slot, backed by a red-black-tree treemap
// rather than a plain map so pruning and ordered iteration are cheap.
type SlotGraph struct {
	parents *treemap.Map
}

// NewSlotGraph returns an empty SlotGraph.
func NewSlotGraph() *SlotGraph {
	return &SlotGraph{parents: treemap.NewWith(utils.UInt64Comparator)}
}

// UpdateParent inserts the slot -> parent edge. A second call for the same
// slot must agree with the first; a conflict returns ErrConflictingParent.
func (g *SlotGraph) UpdateParent(slot, parent uint64) error {
	if existing, found := g.parents.Get(slot); found {
		if existing.(uint64) != parent {
			return fmt.Errorf("%w: slot %d had parent %d, got %d", ErrConflictingParent, slot, existing.(uint64), parent)
		}
		return nil
	}
	g.parents.Put(slot, parent)
	return nil
}

// Len reports the number of edges currently held.
func (g *SlotGraph) Len() int {
	return g.parents.Size()
}

// ExtractChain computes the committed chain up to and including rootedSlot
// by walking parent edges backward, stopping once the graph has no further
// edge. Because Prune removes every edge at or below the previously
// flushed rooted slot after each flush, a backward walk naturally stops at
// that boundary without needing to track it separately here.
//
// ExtractChain does not mutate the graph; call Prune separately once the
// caller is done using the returned set.
func (g *SlotGraph) ExtractChain(rootedSlot uint64) mapset.Set[uint64] {
	chain := mapset.NewThreadUnsafeSet[uint64](rootedSlot)
	slot := rootedSlot
	for {
		parent, found := g.parents.Get(slot)
		if !found {
			return chain
		}
		p := parent.(uint64)
		chain.Add(p)
		slot = p
	}
}

// Prune removes every edge with key <= rootedSlot; nothing at or below a
// flushed rooted slot is ever referenced again.
func (g *SlotGraph) Prune(rootedSlot uint64) {
	for _, k := range g.parents.Keys() {
		key := k.(uint64)
		if key > rootedSlot {
			break // Keys() is ascending; nothing further needs pruning.
		}
		g.parents.Remove(key)
	}
}
