// Package wire hand-encodes the record types exchanged with Bigtable as
// length-delimited protobuf messages.
//
// The owning .proto schema lives outside this module, so rather than
// fabricate a fake generated package, this package uses the low-level,
// reflection-free primitives in
// google.golang.org/protobuf/encoding/protowire directly: the same wire
// format a protoc-gen-go message would produce, hand-written against a
// field layout owned by this package.
package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// appendBytesField appends field num as a length-delimited bytes value, but
// only if v is non-empty; protobuf's implicit "zero value" semantics mean
// omitting empty fields round-trips correctly.
func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendSignedVarintField zigzag-encodes v so negative diffs round-trip.
func appendSignedVarintField(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendDoubleField(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

// fieldVisitor is invoked once per field encountered while decoding; it
// returns the number of bytes of the field's value it consumed, and
// recognized == false if it did not recognize the field (in which case the
// caller skips it generically using typ).
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (consumed int, recognized bool, err error)

// decodeFields walks b field-by-field, calling visit for each. This is the
// shared skeleton every Decode* function in this package uses.
func decodeFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("wire: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		consumed, recognized, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if !recognized {
			consumed = protowire.ConsumeFieldValue(num, typ, b)
			if consumed < 0 {
				return fmt.Errorf("wire: invalid field %d: %w", num, protowire.ParseError(consumed))
			}
		}
		b = b[consumed:]
	}
	return nil
}

func consumeBytesValue(b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("wire: invalid bytes field: %w", protowire.ParseError(n))
	}
	// protowire.ConsumeBytes may return a slice aliasing b; copy so decoded
	// records outlive the input buffer.
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

func consumeStringValue(b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, fmt.Errorf("wire: invalid string field: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeVarintValue(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wire: invalid varint field: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeDoubleValue(b []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wire: invalid fixed64 field: %w", protowire.ParseError(n))
	}
	return math.Float64frombits(v), n, nil
}

func consumeSignedVarintValue(b []byte) (int64, int, error) {
	v, n, err := consumeVarintValue(b)
	if err != nil {
		return 0, 0, err
	}
	return protowire.DecodeZigZag(v), n, nil
}
