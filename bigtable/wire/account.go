package wire

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

// Field numbers for the account record message (table "account", and the
// first, full-valued entry of each account_history batch).
const (
	acctFieldPubkey       protowire.Number = 1
	acctFieldOwner        protowire.Number = 2
	acctFieldLamports     protowire.Number = 3
	acctFieldExecutable   protowire.Number = 4
	acctFieldRentEpoch    protowire.Number = 5
	acctFieldData         protowire.Number = 6
	acctFieldSlot         protowire.Number = 7
	acctFieldWriteVersion protowire.Number = 8
	acctFieldObservedAtMs protowire.Number = 9
)

// EncodeAccount encodes a full AccountUpdate as used for the "account"
// table and for the first element of an account_history batch.
func EncodeAccount(a types.AccountUpdate) []byte {
	var b []byte
	b = appendBytesField(b, acctFieldPubkey, a.Pubkey[:])
	b = appendBytesField(b, acctFieldOwner, a.Owner[:])
	b = appendVarintField(b, acctFieldLamports, a.Lamports)
	b = appendBoolField(b, acctFieldExecutable, a.Executable)
	b = appendVarintField(b, acctFieldRentEpoch, a.RentEpoch)
	b = appendBytesField(b, acctFieldData, a.Data)
	b = appendVarintField(b, acctFieldSlot, a.Slot)
	b = appendVarintField(b, acctFieldWriteVersion, a.WriteVersion)
	b = appendVarintField(b, acctFieldObservedAtMs, uint64(a.ObservedAt.UnixMilli()))
	return b
}

// DecodeAccount decodes bytes produced by EncodeAccount.
func DecodeAccount(buf []byte) (types.AccountUpdate, error) {
	var a types.AccountUpdate
	var observedMs uint64
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case acctFieldPubkey:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			copy(a.Pubkey[:], v)
			return n, true, nil
		case acctFieldOwner:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			copy(a.Owner[:], v)
			return n, true, nil
		case acctFieldLamports:
			v, n, err := consumeVarintValue(b)
			if err != nil {
				return 0, true, err
			}
			a.Lamports = v
			return n, true, nil
		case acctFieldExecutable:
			v, n, err := consumeVarintValue(b)
			if err != nil {
				return 0, true, err
			}
			a.Executable = v != 0
			return n, true, nil
		case acctFieldRentEpoch:
			v, n, err := consumeVarintValue(b)
			if err != nil {
				return 0, true, err
			}
			a.RentEpoch = v
			return n, true, nil
		case acctFieldData:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			a.Data = v
			return n, true, nil
		case acctFieldSlot:
			v, n, err := consumeVarintValue(b)
			if err != nil {
				return 0, true, err
			}
			a.Slot = v
			return n, true, nil
		case acctFieldWriteVersion:
			v, n, err := consumeVarintValue(b)
			if err != nil {
				return 0, true, err
			}
			a.WriteVersion = v
			return n, true, nil
		case acctFieldObservedAtMs:
			v, n, err := consumeVarintValue(b)
			if err != nil {
				return 0, true, err
			}
			observedMs = v
			return n, true, nil
		default:
			return 0, false, nil
		}
	})
	if err != nil {
		return types.AccountUpdate{}, err
	}
	a.ObservedAt = time.UnixMilli(int64(observedMs)).UTC()
	return a, nil
}

// Field numbers for the differential account-history entry message.
const (
	diffFieldRentEpochDelta    protowire.Number = 1
	diffFieldSlotDelta         protowire.Number = 2
	diffFieldWriteVersionDelta protowire.Number = 3
	diffFieldObservedAtDeltaMs protowire.Number = 4
	diffFieldLamports          protowire.Number = 5
	diffFieldData              protowire.Number = 6
)

// AccountDiff is the differential encoding of an AccountUpdate against the
// immediately preceding update in the same (slot, pubkey) run: pubkey,
// owner, and executable are immutable within a run and are omitted
// entirely; rent_epoch/slot/write_version/observed_at are monotonically
// increasing and stored as (next - prev); lamports and data are stored in
// full since they are not monotonic.
type AccountDiff struct {
	RentEpochDelta    uint64
	SlotDelta         uint64
	WriteVersionDelta uint64
	ObservedAtDeltaMs int64
	Lamports          uint64
	Data              []byte
}

// DiffAccount computes the differential encoding of next against prev.
// prev and next must belong to the same run (same pubkey, prev.slot <=
// next.slot).
func DiffAccount(prev, next types.AccountUpdate) AccountDiff {
	return AccountDiff{
		RentEpochDelta:    next.RentEpoch - prev.RentEpoch,
		SlotDelta:         next.Slot - prev.Slot,
		WriteVersionDelta: next.WriteVersion - prev.WriteVersion,
		ObservedAtDeltaMs: next.ObservedAt.UnixMilli() - prev.ObservedAt.UnixMilli(),
		Lamports:          next.Lamports,
		Data:              next.Data,
	}
}

// ApplyDiff reconstructs the full AccountUpdate that produced d, given the
// preceding element in the run. Pubkey, Owner, and Executable are carried
// over from prev since they are immutable within a run.
func ApplyDiff(prev types.AccountUpdate, d AccountDiff) types.AccountUpdate {
	return types.AccountUpdate{
		Pubkey:       prev.Pubkey,
		Owner:        prev.Owner,
		Executable:   prev.Executable,
		Lamports:     d.Lamports,
		Data:         d.Data,
		RentEpoch:    prev.RentEpoch + d.RentEpochDelta,
		Slot:         prev.Slot + d.SlotDelta,
		WriteVersion: prev.WriteVersion + d.WriteVersionDelta,
		ObservedAt:   time.UnixMilli(prev.ObservedAt.UnixMilli() + d.ObservedAtDeltaMs).UTC(),
	}
}

// EncodeAccountDiff encodes d as a length-delimited protobuf message.
func EncodeAccountDiff(d AccountDiff) []byte {
	var b []byte
	b = appendVarintField(b, diffFieldRentEpochDelta, d.RentEpochDelta)
	b = appendVarintField(b, diffFieldSlotDelta, d.SlotDelta)
	b = appendVarintField(b, diffFieldWriteVersionDelta, d.WriteVersionDelta)
	b = appendSignedVarintField(b, diffFieldObservedAtDeltaMs, d.ObservedAtDeltaMs)
	b = appendVarintField(b, diffFieldLamports, d.Lamports)
	b = appendBytesField(b, diffFieldData, d.Data)
	return b
}

// DecodeAccountDiff decodes bytes produced by EncodeAccountDiff.
func DecodeAccountDiff(buf []byte) (AccountDiff, error) {
	var d AccountDiff
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case diffFieldRentEpochDelta:
			v, n, err := consumeVarintValue(b)
			d.RentEpochDelta = v
			return n, true, err
		case diffFieldSlotDelta:
			v, n, err := consumeVarintValue(b)
			d.SlotDelta = v
			return n, true, err
		case diffFieldWriteVersionDelta:
			v, n, err := consumeVarintValue(b)
			d.WriteVersionDelta = v
			return n, true, err
		case diffFieldObservedAtDeltaMs:
			v, n, err := consumeSignedVarintValue(b)
			d.ObservedAtDeltaMs = v
			return n, true, err
		case diffFieldLamports:
			v, n, err := consumeVarintValue(b)
			d.Lamports = v
			return n, true, err
		case diffFieldData:
			v, n, err := consumeBytesValue(b)
			d.Data = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	return d, err
}

// Field number for the repeated-entries wrapper used to persist an entire
// account_history batch (one full record followed by zero or more diffs) as
// a single Bigtable cell value.
const historyBatchFieldEntry protowire.Number = 1

// EncodeHistoryBatch concatenates already-encoded entries (the first from
// EncodeAccount, the rest from EncodeAccountDiff) into one message.
func EncodeHistoryBatch(entries [][]byte) []byte {
	var b []byte
	for _, e := range entries {
		b = protowire.AppendTag(b, historyBatchFieldEntry, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return b
}

// DecodeHistoryBatch splits a message produced by EncodeHistoryBatch back
// into its raw entries, in order.
func DecodeHistoryBatch(buf []byte) ([][]byte, error) {
	var entries [][]byte
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		if num != historyBatchFieldEntry {
			return 0, false, nil
		}
		v, n, err := consumeBytesValue(b)
		if err != nil {
			return 0, true, err
		}
		entries = append(entries, v)
		return n, true, nil
	})
	return entries, err
}
