package wire

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

const (
	slotFieldSlot         protowire.Number = 1
	slotFieldParent       protowire.Number = 2
	slotFieldHasParent    protowire.Number = 3
	slotFieldStatus       protowire.Number = 4
	slotFieldObservedAtMs protowire.Number = 5
)

// EncodeSlot encodes a SlotUpdate for the "slot" table.
func EncodeSlot(s types.SlotUpdate) []byte {
	var b []byte
	b = appendVarintField(b, slotFieldSlot, s.Slot)
	b = appendVarintField(b, slotFieldParent, s.Parent)
	b = appendBoolField(b, slotFieldHasParent, s.HasParent)
	b = appendStringField(b, slotFieldStatus, s.Status.String())
	b = appendVarintField(b, slotFieldObservedAtMs, uint64(s.ObservedAt.UnixMilli()))
	return b
}

// DecodeSlot decodes bytes produced by EncodeSlot.
func DecodeSlot(buf []byte) (types.SlotUpdate, error) {
	var s types.SlotUpdate
	var status string
	var observedMs uint64
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case slotFieldSlot:
			v, n, err := consumeVarintValue(b)
			s.Slot = v
			return n, true, err
		case slotFieldParent:
			v, n, err := consumeVarintValue(b)
			s.Parent = v
			return n, true, err
		case slotFieldHasParent:
			v, n, err := consumeVarintValue(b)
			s.HasParent = v != 0
			return n, true, err
		case slotFieldStatus:
			v, n, err := consumeStringValue(b)
			status = v
			return n, true, err
		case slotFieldObservedAtMs:
			v, n, err := consumeVarintValue(b)
			observedMs = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	if err != nil {
		return types.SlotUpdate{}, err
	}
	switch status {
	case "processed":
		s.Status = types.SlotProcessed
	case "confirmed":
		s.Status = types.SlotConfirmed
	case "rooted":
		s.Status = types.SlotRooted
	}
	s.ObservedAt = time.UnixMilli(int64(observedMs)).UTC()
	return s, nil
}
