// Package types holds the data model shared across the dispatcher, queue,
// worker pool, and Bigtable clients: the shapes the validator's change-feed
// emits and that eventually land in Bigtable rows.
package types

import "time"

// AccountUpdate is a single account mutation observed by the validator.
//
// Identity for ordering purposes is the triple (Slot, Pubkey, WriteVersion):
// WriteVersion is assigned by the host and increases monotonically within a
// slot, disambiguating multiple writes to the same account in that slot.
type AccountUpdate struct {
	Pubkey        [32]byte
	Owner         [32]byte
	Lamports      uint64
	Executable    bool
	RentEpoch     uint64
	Data          []byte
	Slot          uint64
	WriteVersion  uint64
	ObservedAt    time.Time
	// IsStartup marks an update replayed from the validator's initial
	// snapshot rather than observed live. It is carried for the host shim
	// that marshals the validator's callbacks; the core pipeline itself
	// does not read it (skip-on-startup is a global dispatcher policy, not
	// a per-update decision).
	IsStartup bool
}

// SlotStatus is the validator's view of how final a slot's placement in the
// chain is.
type SlotStatus int

const (
	SlotProcessed SlotStatus = iota
	SlotConfirmed
	SlotRooted
)

func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotConfirmed:
		return "confirmed"
	case SlotRooted:
		return "rooted"
	default:
		return "unknown"
	}
}

// SlotUpdate reports a transition of a slot through SlotStatus. Parent is
// absent (HasParent false) only for a chain's genesis slot.
type SlotUpdate struct {
	Slot       uint64
	Parent     uint64
	HasParent  bool
	Status     SlotStatus
	ObservedAt time.Time
}
