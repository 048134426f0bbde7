package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

const (
	rewardFieldPubkey      protowire.Number = 1
	rewardFieldLamports    protowire.Number = 2
	rewardFieldPostBalance protowire.Number = 3
	rewardFieldType        protowire.Number = 4
)

func encodeReward(r types.Reward) []byte {
	var b []byte
	b = appendStringField(b, rewardFieldPubkey, r.Pubkey)
	b = appendSignedVarintField(b, rewardFieldLamports, r.Lamports)
	b = appendVarintField(b, rewardFieldPostBalance, r.PostBalance)
	b = appendStringField(b, rewardFieldType, r.RewardType)
	return b
}

func decodeReward(buf []byte) (types.Reward, error) {
	var r types.Reward
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case rewardFieldPubkey:
			v, n, err := consumeStringValue(b)
			r.Pubkey = v
			return n, true, err
		case rewardFieldLamports:
			v, n, err := consumeSignedVarintValue(b)
			r.Lamports = v
			return n, true, err
		case rewardFieldPostBalance:
			v, n, err := consumeVarintValue(b)
			r.PostBalance = v
			return n, true, err
		case rewardFieldType:
			v, n, err := consumeStringValue(b)
			r.RewardType = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	return r, err
}

const (
	blockFieldSlot        protowire.Number = 1
	blockFieldBlockhash   protowire.Number = 2
	blockFieldRewards     protowire.Number = 3
	blockFieldHasTime     protowire.Number = 4
	blockFieldTime        protowire.Number = 5
	blockFieldHasHeight   protowire.Number = 6
	blockFieldHeight      protowire.Number = 7
)

// EncodeBlock encodes BlockMetadata for the "block" table.
func EncodeBlock(blk types.BlockMetadata) []byte {
	var b []byte
	b = appendVarintField(b, blockFieldSlot, blk.Slot)
	b = appendStringField(b, blockFieldBlockhash, blk.Blockhash)
	for _, r := range blk.Rewards {
		b = protowire.AppendTag(b, blockFieldRewards, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeReward(r))
	}
	if blk.BlockTime != nil {
		b = appendBoolField(b, blockFieldHasTime, true)
		b = appendSignedVarintField(b, blockFieldTime, *blk.BlockTime)
	}
	if blk.BlockHeight != nil {
		b = appendBoolField(b, blockFieldHasHeight, true)
		b = appendVarintField(b, blockFieldHeight, *blk.BlockHeight)
	}
	return b
}

// DecodeBlock decodes bytes produced by EncodeBlock.
func DecodeBlock(buf []byte) (types.BlockMetadata, error) {
	var blk types.BlockMetadata
	var hasTime, hasHeight bool
	var blockTime int64
	var blockHeight uint64
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case blockFieldSlot:
			v, n, err := consumeVarintValue(b)
			blk.Slot = v
			return n, true, err
		case blockFieldBlockhash:
			v, n, err := consumeStringValue(b)
			blk.Blockhash = v
			return n, true, err
		case blockFieldRewards:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			r, err := decodeReward(v)
			if err != nil {
				return 0, true, err
			}
			blk.Rewards = append(blk.Rewards, r)
			return n, true, nil
		case blockFieldHasTime:
			v, n, err := consumeVarintValue(b)
			hasTime = v != 0
			return n, true, err
		case blockFieldTime:
			v, n, err := consumeSignedVarintValue(b)
			blockTime = v
			return n, true, err
		case blockFieldHasHeight:
			v, n, err := consumeVarintValue(b)
			hasHeight = v != 0
			return n, true, err
		case blockFieldHeight:
			v, n, err := consumeVarintValue(b)
			blockHeight = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	if err != nil {
		return types.BlockMetadata{}, err
	}
	if hasTime {
		blk.BlockTime = &blockTime
	}
	if hasHeight {
		blk.BlockHeight = &blockHeight
	}
	return blk, nil
}
