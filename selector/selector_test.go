package selector

import (
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"
)

func mk32(b byte) [32]byte {
	var a [32]byte
	a[0] = b
	return a
}

func TestAccountsSelector_MatchAll(t *testing.T) {
	s := NewAccountsSelector([]string{"*"}, nil)
	assert.False(t, s.IsEmpty())
	assert.True(t, s.IsSelected(mk32(1), mk32(2)))
}

func TestAccountsSelector_ExplicitPubkey(t *testing.T) {
	pk := mk32(7)
	s := NewAccountsSelector([]string{base58.Encode(pk[:])}, nil)
	assert.True(t, s.IsSelected(pk, mk32(9)))
	assert.False(t, s.IsSelected(mk32(8), mk32(9)))
}

func TestAccountsSelector_Owner(t *testing.T) {
	owner := mk32(3)
	s := NewAccountsSelector(nil, []string{base58.Encode(owner[:])})
	assert.True(t, s.IsSelected(mk32(99), owner))
	assert.False(t, s.IsSelected(mk32(99), mk32(100)))
}

func TestAccountsSelector_Empty(t *testing.T) {
	s := NewAccountsSelector(nil, nil)
	assert.True(t, s.IsEmpty())
	assert.False(t, s.IsSelected(mk32(1), mk32(2)))
}

func TestTransactionSelector_AllVotes(t *testing.T) {
	s := NewTransactionSelector([]string{"all_votes"})
	assert.True(t, s.IsSelected(true, nil))
	assert.False(t, s.IsSelected(false, nil))
}

func TestTransactionSelector_Mentions(t *testing.T) {
	pk := mk32(5)
	s := NewTransactionSelector([]string{base58.Encode(pk[:])})
	assert.True(t, s.IsSelected(false, [][32]byte{pk}))
	assert.False(t, s.IsSelected(false, [][32]byte{mk32(6)}))
}
