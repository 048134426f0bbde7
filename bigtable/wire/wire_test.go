package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

func mkAccount(slot, wv, rentEpoch, lamports uint64, data []byte) types.AccountUpdate {
	return types.AccountUpdate{
		Pubkey:       [32]byte{1, 2, 3},
		Owner:        [32]byte{9, 9, 9},
		Lamports:     lamports,
		Executable:   true,
		RentEpoch:    rentEpoch,
		Data:         data,
		Slot:         slot,
		WriteVersion: wv,
		ObservedAt:   time.UnixMilli(1_700_000_000_000).UTC(),
	}
}

func TestEncodeDecodeAccount_RoundTrip(t *testing.T) {
	a := mkAccount(10, 1, 100, 500, []byte{1, 2})
	got, err := DecodeAccount(EncodeAccount(a))
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

// TestDifferentialEncoding_SecondUpdateStoredAsDiff: two updates to the
// same pubkey at slot 10; the second is stored as a diff against the
// first.
func TestDifferentialEncoding_SecondUpdateStoredAsDiff(t *testing.T) {
	first := mkAccount(10, 1, 100, 500, []byte{1, 2})
	second := mkAccount(10, 2, 101, 400, []byte{3})

	diff := DiffAccount(first, second)
	assert.EqualValues(t, 1, diff.RentEpochDelta)
	assert.EqualValues(t, 0, diff.SlotDelta)
	assert.EqualValues(t, 1, diff.WriteVersionDelta)
	assert.EqualValues(t, 400, diff.Lamports)
	assert.Equal(t, []byte{3}, diff.Data)

	reconstructed := ApplyDiff(first, diff)
	assert.Equal(t, second, reconstructed)
}

func TestAccountDiff_RoundTripThroughWire(t *testing.T) {
	first := mkAccount(10, 1, 100, 500, []byte{1, 2})
	second := mkAccount(12, 5, 103, 999, []byte{9, 9, 9, 9})

	diff := DiffAccount(first, second)
	wireBytes := EncodeAccountDiff(diff)
	decoded, err := DecodeAccountDiff(wireBytes)
	require.NoError(t, err)
	assert.Equal(t, diff, decoded)
	assert.Equal(t, second, ApplyDiff(first, decoded))
}

func TestHistoryBatch_RoundTrip_NEntries(t *testing.T) {
	updates := []types.AccountUpdate{
		mkAccount(10, 1, 100, 500, []byte{1}),
		mkAccount(10, 2, 101, 400, []byte{2}),
		mkAccount(10, 5, 104, 1, []byte{3, 3}),
	}

	entries := [][]byte{EncodeAccount(updates[0])}
	for i := 1; i < len(updates); i++ {
		entries = append(entries, EncodeAccountDiff(DiffAccount(updates[i-1], updates[i])))
	}
	batch := EncodeHistoryBatch(entries)

	decodedEntries, err := DecodeHistoryBatch(batch)
	require.NoError(t, err)
	require.Len(t, decodedEntries, len(updates))

	first, err := DecodeAccount(decodedEntries[0])
	require.NoError(t, err)
	reconstructed := []types.AccountUpdate{first}
	for i := 1; i < len(decodedEntries); i++ {
		d, err := DecodeAccountDiff(decodedEntries[i])
		require.NoError(t, err)
		reconstructed = append(reconstructed, ApplyDiff(reconstructed[i-1], d))
	}
	assert.Equal(t, updates, reconstructed)
}

func TestEncodeDecodeSlot_RoundTrip(t *testing.T) {
	s := types.SlotUpdate{
		Slot:       42,
		Parent:     41,
		HasParent:  true,
		Status:     types.SlotRooted,
		ObservedAt: time.UnixMilli(1_700_000_000_000).UTC(),
	}
	got, err := DecodeSlot(EncodeSlot(s))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEncodeDecodeBlock_RoundTrip(t *testing.T) {
	bt := int64(1_700_000_000)
	bh := uint64(123)
	blk := types.BlockMetadata{
		Slot:      42,
		Blockhash: "abc123",
		Rewards: []types.Reward{
			{Pubkey: "p1", Lamports: 100, PostBalance: 1000, RewardType: "fee"},
		},
		BlockTime:   &bt,
		BlockHeight: &bh,
	}
	got, err := DecodeBlock(EncodeBlock(blk))
	require.NoError(t, err)
	assert.Equal(t, blk, got)
}

func TestEncodeDecodeTransaction_RoundTrip(t *testing.T) {
	tx := types.TransactionRecord{
		Signature:  [64]byte{1, 2, 3},
		Signatures: [][64]byte{{1, 2, 3}},
		Slot:       7,
		IsVote:     false,
		Message: types.TransactionMessage{
			IsV0:            true,
			AccountKeys:     [][32]byte{{1}, {2}},
			RecentBlockhash: [32]byte{5},
			Instructions: []types.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []byte{0, 1}, Data: []byte{9}},
			},
			AddressTableLookups: []types.AddressTableLookup{
				{AccountKey: [32]byte{7}, WritableIndexes: []byte{1}, ReadonlyIndexes: []byte{2}},
			},
		},
		Meta: types.TransactionStatusMeta{
			Fee:          5000,
			PreBalances:  []uint64{100, 200},
			PostBalances: []uint64{95, 205},
			LogMessages:  []string{"log one", "log two"},
			InnerInstructions: []types.InnerInstructionSet{
				{Index: 0, Instructions: []types.CompiledInstruction{{ProgramIDIndex: 2, Data: []byte{1}}}},
			},
			PreTokenBalances: []types.TokenBalance{
				{AccountIndex: 1, Mint: "mint1", Owner: "owner1", UIAmount: 0.00001, Amount: "10", Decimals: 6},
			},
			Rewards: []types.Reward{{Pubkey: "p1", Lamports: 1, PostBalance: 2, RewardType: "fee"}},
		},
	}
	got, err := DecodeTransaction(EncodeTransaction(tx))
	require.NoError(t, err)
	assert.Equal(t, tx, got)
}
