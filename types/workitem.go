package types

import "github.com/google/uuid"

// Kind tags the payload carried by a WorkItem.
type Kind int

const (
	KindUpdateAccount Kind = iota
	KindUpdateSlot
	KindLogTransaction
	KindUpdateBlockMetadata
)

func (k Kind) String() string {
	switch k {
	case KindUpdateAccount:
		return "update_account"
	case KindUpdateSlot:
		return "update_slot"
	case KindLogTransaction:
		return "log_transaction"
	case KindUpdateBlockMetadata:
		return "update_block_metadata"
	default:
		return "unknown"
	}
}

// WorkItem is the tagged sum the dispatcher offers to the work queue and the
// worker pool drains. Exactly one of the payload fields is set, matching
// Kind.
//
// TraceID exists purely to correlate a single host notification across
// dispatcher -> queue -> worker -> remote write in structured logs; it is
// never part of a row key or persisted payload.
type WorkItem struct {
	Kind    Kind
	TraceID uuid.UUID

	Account *AccountUpdate
	Slot    *SlotUpdate
	Tx      *TransactionRecord
	Block   *BlockMetadata
}

// NewAccountItem builds a WorkItem wrapping an AccountUpdate.
func NewAccountItem(a AccountUpdate) WorkItem {
	return WorkItem{Kind: KindUpdateAccount, TraceID: uuid.New(), Account: &a}
}

// NewSlotItem builds a WorkItem wrapping a SlotUpdate.
func NewSlotItem(s SlotUpdate) WorkItem {
	return WorkItem{Kind: KindUpdateSlot, TraceID: uuid.New(), Slot: &s}
}

// NewTransactionItem builds a WorkItem wrapping a TransactionRecord.
func NewTransactionItem(tx TransactionRecord) WorkItem {
	return WorkItem{Kind: KindLogTransaction, TraceID: uuid.New(), Tx: &tx}
}

// NewBlockItem builds a WorkItem wrapping BlockMetadata.
func NewBlockItem(b BlockMetadata) WorkItem {
	return WorkItem{Kind: KindUpdateBlockMetadata, TraceID: uuid.New(), Block: &b}
}
