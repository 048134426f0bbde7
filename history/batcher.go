package history

import (
	"sort"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

// EmitFunc receives one run of AccountUpdate values sharing (slot, pubkey),
// ordered by increasing write_version, belonging to the committed chain.
type EmitFunc func(run []types.AccountUpdate) error

// Batcher accumulates AccountUpdate values and the slot parent graph, and
// emits per-(slot, pubkey) runs once their slot is known to be on the
// rooted chain. A Batcher is owned exclusively by one worker; it is not
// safe for concurrent use.
type Batcher struct {
	updates []types.AccountUpdate
	graph   *SlotGraph
}

// New returns an empty Batcher.
func New() *Batcher {
	return &Batcher{graph: NewSlotGraph()}
}

// Add appends update to the unsorted pending sequence.
func (b *Batcher) Add(update types.AccountUpdate) {
	b.updates = append(b.updates, update)
}

// UpdateSlotParent records the slot -> parent edge.
func (b *Batcher) UpdateSlotParent(slot, parent uint64) error {
	return b.graph.UpdateParent(slot, parent)
}

// Pending reports how many updates are currently buffered, unflushed.
func (b *Batcher) Pending() int {
	return len(b.updates)
}

func orderKeyLess(a, c types.AccountUpdate) bool {
	if a.Slot != c.Slot {
		return a.Slot < c.Slot
	}
	if a.Pubkey != c.Pubkey {
		for i := range a.Pubkey {
			if a.Pubkey[i] != c.Pubkey[i] {
				return a.Pubkey[i] < c.Pubkey[i]
			}
		}
	}
	return a.WriteVersion < c.WriteVersion
}

// Flush emits everything that became final once rootedSlot was rooted:
//
//  1. stable-sort updates by (slot, pubkey, write_version);
//  2. compute the committed chain up to rootedSlot and prune the graph;
//  3. compute and remove the contiguous prefix with slot <= rootedSlot;
//  4. group that prefix into (slot, pubkey) runs, emitting only runs whose
//     slot is on the committed chain;
//  5. never emit an empty run.
//
// If rootedSlot is lower than the lowest pending update's slot, nothing is
// emitted; the graph is still pruned, since after Flush(S) it must hold no
// key <= S.
func (b *Batcher) Flush(rootedSlot uint64, emit EmitFunc) error {
	sort.SliceStable(b.updates, func(i, j int) bool {
		return orderKeyLess(b.updates[i], b.updates[j])
	})

	drainEnd := len(b.updates)
	for i, u := range b.updates {
		if u.Slot > rootedSlot {
			drainEnd = i
			break
		}
	}

	committed := b.graph.ExtractChain(rootedSlot)
	b.graph.Prune(rootedSlot)

	if drainEnd == 0 {
		return nil // nothing to emit yet
	}
	drain := b.updates[:drainEnd]

	var run []types.AccountUpdate
	flushRun := func() error {
		if len(run) == 0 {
			return nil
		}
		toEmit := run
		run = nil
		return emit(toEmit)
	}

	for _, u := range drain {
		if !committed.Contains(u.Slot) {
			continue // abandoned fork: discard
		}
		if len(run) > 0 {
			last := run[len(run)-1]
			if last.Slot != u.Slot || last.Pubkey != u.Pubkey {
				if err := flushRun(); err != nil {
					return err
				}
			}
		}
		run = append(run, u)
	}
	if err := flushRun(); err != nil {
		return err
	}

	remaining := make([]types.AccountUpdate, len(b.updates)-drainEnd)
	copy(remaining, b.updates[drainEnd:])
	b.updates = remaining
	return nil
}
