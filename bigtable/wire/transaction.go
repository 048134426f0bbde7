package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

// --- CompiledInstruction ---

const (
	instrFieldProgramIDIndex protowire.Number = 1
	instrFieldAccounts       protowire.Number = 2
	instrFieldData           protowire.Number = 3
)

func encodeInstruction(i types.CompiledInstruction) []byte {
	var b []byte
	b = appendVarintField(b, instrFieldProgramIDIndex, uint64(i.ProgramIDIndex))
	b = appendBytesField(b, instrFieldAccounts, i.Accounts)
	b = appendBytesField(b, instrFieldData, i.Data)
	return b
}

func decodeInstruction(buf []byte) (types.CompiledInstruction, error) {
	var i types.CompiledInstruction
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case instrFieldProgramIDIndex:
			v, n, err := consumeVarintValue(b)
			i.ProgramIDIndex = uint8(v)
			return n, true, err
		case instrFieldAccounts:
			v, n, err := consumeBytesValue(b)
			i.Accounts = v
			return n, true, err
		case instrFieldData:
			v, n, err := consumeBytesValue(b)
			i.Data = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	return i, err
}

// --- AddressTableLookup ---

const (
	lookupFieldAccountKey      protowire.Number = 1
	lookupFieldWritableIndexes protowire.Number = 2
	lookupFieldReadonlyIndexes protowire.Number = 3
)

func encodeLookup(l types.AddressTableLookup) []byte {
	var b []byte
	b = appendBytesField(b, lookupFieldAccountKey, l.AccountKey[:])
	b = appendBytesField(b, lookupFieldWritableIndexes, l.WritableIndexes)
	b = appendBytesField(b, lookupFieldReadonlyIndexes, l.ReadonlyIndexes)
	return b
}

func decodeLookup(buf []byte) (types.AddressTableLookup, error) {
	var l types.AddressTableLookup
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case lookupFieldAccountKey:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			copy(l.AccountKey[:], v)
			return n, true, nil
		case lookupFieldWritableIndexes:
			v, n, err := consumeBytesValue(b)
			l.WritableIndexes = v
			return n, true, err
		case lookupFieldReadonlyIndexes:
			v, n, err := consumeBytesValue(b)
			l.ReadonlyIndexes = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	return l, err
}

// --- TransactionMessage ---

const (
	msgFieldIsV0               protowire.Number = 1
	msgFieldAccountKeys        protowire.Number = 2
	msgFieldRecentBlockhash    protowire.Number = 3
	msgFieldInstructions       protowire.Number = 4
	msgFieldAddressTableLookup protowire.Number = 5
)

func encodeMessage(m types.TransactionMessage) []byte {
	var b []byte
	b = appendBoolField(b, msgFieldIsV0, m.IsV0)
	for _, k := range m.AccountKeys {
		b = protowire.AppendTag(b, msgFieldAccountKeys, protowire.BytesType)
		b = protowire.AppendBytes(b, k[:])
	}
	b = appendBytesField(b, msgFieldRecentBlockhash, m.RecentBlockhash[:])
	for _, ins := range m.Instructions {
		b = protowire.AppendTag(b, msgFieldInstructions, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeInstruction(ins))
	}
	for _, lk := range m.AddressTableLookups {
		b = protowire.AppendTag(b, msgFieldAddressTableLookup, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeLookup(lk))
	}
	return b
}

func decodeMessage(buf []byte) (types.TransactionMessage, error) {
	var m types.TransactionMessage
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case msgFieldIsV0:
			v, n, err := consumeVarintValue(b)
			m.IsV0 = v != 0
			return n, true, err
		case msgFieldAccountKeys:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			var key [32]byte
			copy(key[:], v)
			m.AccountKeys = append(m.AccountKeys, key)
			return n, true, nil
		case msgFieldRecentBlockhash:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			copy(m.RecentBlockhash[:], v)
			return n, true, nil
		case msgFieldInstructions:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			ins, err := decodeInstruction(v)
			if err != nil {
				return 0, true, err
			}
			m.Instructions = append(m.Instructions, ins)
			return n, true, nil
		case msgFieldAddressTableLookup:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			lk, err := decodeLookup(v)
			if err != nil {
				return 0, true, err
			}
			m.AddressTableLookups = append(m.AddressTableLookups, lk)
			return n, true, nil
		default:
			return 0, false, nil
		}
	})
	return m, err
}

// --- TokenBalance ---

const (
	tokBalFieldAccountIndex protowire.Number = 1
	tokBalFieldMint         protowire.Number = 2
	tokBalFieldOwner        protowire.Number = 3
	tokBalFieldAmount       protowire.Number = 4
	tokBalFieldDecimals     protowire.Number = 5
	tokBalFieldUIAmount     protowire.Number = 6
)

func encodeTokenBalance(t types.TokenBalance) []byte {
	var b []byte
	b = appendVarintField(b, tokBalFieldAccountIndex, uint64(t.AccountIndex))
	b = appendStringField(b, tokBalFieldMint, t.Mint)
	b = appendStringField(b, tokBalFieldOwner, t.Owner)
	b = appendStringField(b, tokBalFieldAmount, t.Amount)
	b = appendVarintField(b, tokBalFieldDecimals, uint64(t.Decimals))
	b = appendDoubleField(b, tokBalFieldUIAmount, t.UIAmount)
	return b
}

func decodeTokenBalance(buf []byte) (types.TokenBalance, error) {
	var t types.TokenBalance
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case tokBalFieldAccountIndex:
			v, n, err := consumeVarintValue(b)
			t.AccountIndex = uint8(v)
			return n, true, err
		case tokBalFieldMint:
			v, n, err := consumeStringValue(b)
			t.Mint = v
			return n, true, err
		case tokBalFieldOwner:
			v, n, err := consumeStringValue(b)
			t.Owner = v
			return n, true, err
		case tokBalFieldAmount:
			v, n, err := consumeStringValue(b)
			t.Amount = v
			return n, true, err
		case tokBalFieldDecimals:
			v, n, err := consumeVarintValue(b)
			t.Decimals = uint8(v)
			return n, true, err
		case tokBalFieldUIAmount:
			v, n, err := consumeDoubleValue(b)
			t.UIAmount = v
			return n, true, err
		default:
			return 0, false, nil
		}
	})
	return t, err
}

// --- InnerInstructionSet ---

const (
	innerFieldIndex        protowire.Number = 1
	innerFieldInstructions protowire.Number = 2
)

func encodeInnerSet(s types.InnerInstructionSet) []byte {
	var b []byte
	b = appendVarintField(b, innerFieldIndex, uint64(s.Index))
	for _, ins := range s.Instructions {
		b = protowire.AppendTag(b, innerFieldInstructions, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeInstruction(ins))
	}
	return b
}

func decodeInnerSet(buf []byte) (types.InnerInstructionSet, error) {
	var s types.InnerInstructionSet
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case innerFieldIndex:
			v, n, err := consumeVarintValue(b)
			s.Index = uint8(v)
			return n, true, err
		case innerFieldInstructions:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			ins, err := decodeInstruction(v)
			if err != nil {
				return 0, true, err
			}
			s.Instructions = append(s.Instructions, ins)
			return n, true, nil
		default:
			return 0, false, nil
		}
	})
	return s, err
}

// --- TransactionStatusMeta ---

const (
	metaFieldErr               protowire.Number = 1
	metaFieldFee               protowire.Number = 2
	metaFieldPreBalances       protowire.Number = 3
	metaFieldPostBalances      protowire.Number = 4
	metaFieldInnerInstrSets    protowire.Number = 5
	metaFieldLogMessages       protowire.Number = 6
	metaFieldPreTokenBalances  protowire.Number = 7
	metaFieldPostTokenBalances protowire.Number = 8
	metaFieldRewards           protowire.Number = 9
)

func encodeMeta(m types.TransactionStatusMeta) []byte {
	var b []byte
	b = appendBytesField(b, metaFieldErr, m.Err)
	b = appendVarintField(b, metaFieldFee, m.Fee)
	for _, v := range m.PreBalances {
		b = appendVarintField(b, metaFieldPreBalances, v)
	}
	for _, v := range m.PostBalances {
		b = appendVarintField(b, metaFieldPostBalances, v)
	}
	for _, s := range m.InnerInstructions {
		b = protowire.AppendTag(b, metaFieldInnerInstrSets, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeInnerSet(s))
	}
	for _, msg := range m.LogMessages {
		b = protowire.AppendTag(b, metaFieldLogMessages, protowire.BytesType)
		b = protowire.AppendString(b, msg)
	}
	for _, tb := range m.PreTokenBalances {
		b = protowire.AppendTag(b, metaFieldPreTokenBalances, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTokenBalance(tb))
	}
	for _, tb := range m.PostTokenBalances {
		b = protowire.AppendTag(b, metaFieldPostTokenBalances, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTokenBalance(tb))
	}
	for _, r := range m.Rewards {
		b = protowire.AppendTag(b, metaFieldRewards, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeReward(r))
	}
	return b
}

func decodeMeta(buf []byte) (types.TransactionStatusMeta, error) {
	var m types.TransactionStatusMeta
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case metaFieldErr:
			v, n, err := consumeBytesValue(b)
			m.Err = v
			return n, true, err
		case metaFieldFee:
			v, n, err := consumeVarintValue(b)
			m.Fee = v
			return n, true, err
		case metaFieldPreBalances:
			v, n, err := consumeVarintValue(b)
			m.PreBalances = append(m.PreBalances, v)
			return n, true, err
		case metaFieldPostBalances:
			v, n, err := consumeVarintValue(b)
			m.PostBalances = append(m.PostBalances, v)
			return n, true, err
		case metaFieldInnerInstrSets:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			s, err := decodeInnerSet(v)
			if err != nil {
				return 0, true, err
			}
			m.InnerInstructions = append(m.InnerInstructions, s)
			return n, true, nil
		case metaFieldLogMessages:
			v, n, err := consumeStringValue(b)
			m.LogMessages = append(m.LogMessages, v)
			return n, true, err
		case metaFieldPreTokenBalances:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			tb, err := decodeTokenBalance(v)
			if err != nil {
				return 0, true, err
			}
			m.PreTokenBalances = append(m.PreTokenBalances, tb)
			return n, true, nil
		case metaFieldPostTokenBalances:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			tb, err := decodeTokenBalance(v)
			if err != nil {
				return 0, true, err
			}
			m.PostTokenBalances = append(m.PostTokenBalances, tb)
			return n, true, nil
		case metaFieldRewards:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			r, err := decodeReward(v)
			if err != nil {
				return 0, true, err
			}
			m.Rewards = append(m.Rewards, r)
			return n, true, nil
		default:
			return 0, false, nil
		}
	})
	return m, err
}

// --- TransactionRecord ---

const (
	txFieldSignature  protowire.Number = 1
	txFieldSlot       protowire.Number = 2
	txFieldIsVote     protowire.Number = 3
	txFieldMessage    protowire.Number = 4
	txFieldMeta       protowire.Number = 5
	txFieldSignatures protowire.Number = 6
)

// EncodeTransaction encodes a TransactionRecord for the "tx" table.
func EncodeTransaction(tx types.TransactionRecord) []byte {
	var b []byte
	b = appendBytesField(b, txFieldSignature, tx.Signature[:])
	b = appendVarintField(b, txFieldSlot, tx.Slot)
	b = appendBoolField(b, txFieldIsVote, tx.IsVote)
	b = protowire.AppendTag(b, txFieldMessage, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeMessage(tx.Message))
	b = protowire.AppendTag(b, txFieldMeta, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeMeta(tx.Meta))
	for _, sig := range tx.Signatures {
		b = protowire.AppendTag(b, txFieldSignatures, protowire.BytesType)
		b = protowire.AppendBytes(b, sig[:])
	}
	return b
}

// DecodeTransaction decodes bytes produced by EncodeTransaction.
func DecodeTransaction(buf []byte) (types.TransactionRecord, error) {
	var tx types.TransactionRecord
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case txFieldSignature:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			copy(tx.Signature[:], v)
			return n, true, nil
		case txFieldSlot:
			v, n, err := consumeVarintValue(b)
			tx.Slot = v
			return n, true, err
		case txFieldIsVote:
			v, n, err := consumeVarintValue(b)
			tx.IsVote = v != 0
			return n, true, err
		case txFieldMessage:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			m, err := decodeMessage(v)
			if err != nil {
				return 0, true, err
			}
			tx.Message = m
			return n, true, nil
		case txFieldMeta:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			meta, err := decodeMeta(v)
			if err != nil {
				return 0, true, err
			}
			tx.Meta = meta
			return n, true, nil
		case txFieldSignatures:
			v, n, err := consumeBytesValue(b)
			if err != nil {
				return 0, true, err
			}
			var sig [64]byte
			copy(sig[:], v)
			tx.Signatures = append(tx.Signatures, sig)
			return n, true, nil
		default:
			return 0, false, nil
		}
	})
	return tx, err
}
