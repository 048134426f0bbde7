package bigtable

import (
	"fmt"
	"strconv"

	"github.com/btcsuite/btcutil/base58"
)

// AccountRowKey returns the row key for the "account" table: base58(pubkey).
func AccountRowKey(pubkey [32]byte) string {
	return base58.Encode(pubkey[:])
}

// AccountHistoryRowKey returns the row key for the "account_history" table:
//
//	"{base58(pubkey)}/{^slot:016X}/{^write_version:016X}"
//
// where ^x denotes the bitwise complement of x, so that row-key ordering
// yields newest-first scans.
func AccountHistoryRowKey(pubkey [32]byte, slot, writeVersion uint64) string {
	return fmt.Sprintf("%s/%016X/%016X", base58.Encode(pubkey[:]), ^slot, ^writeVersion)
}

// SlotRowKey returns the row key for the "slot" table: the decimal slot
// number.
func SlotRowKey(slot uint64) string {
	return strconv.FormatUint(slot, 10)
}

// BlockRowKey returns the row key for the "block" table: the decimal slot
// number.
func BlockRowKey(slot uint64) string {
	return strconv.FormatUint(slot, 10)
}

// TransactionRowKey returns the row key for the "tx" table:
// base58(signature).
func TransactionRowKey(signature [64]byte) string {
	return base58.Encode(signature[:])
}
