// Package selector implements the account and transaction selection
// predicates configured via accounts_selector and transaction_selector.
// Both are base58-aware, since Solana pubkeys and signatures are
// exchanged as base58 strings in configuration.
package selector

import "github.com/btcsuite/btcutil/base58"

// AccountsSelector decides whether an AccountUpdate should be persisted,
// based on its pubkey or owner. IsSelected on a selector with no entries
// matches nothing; the dispatcher treats that case (IsEmpty) as "no
// filter configured" and admits every account, so an absent
// accounts_selector config object leaves the pipeline unfiltered.
type AccountsSelector struct {
	matchAll bool
	pubkeys  map[[32]byte]struct{}
	owners   map[[32]byte]struct{}
}

// NewAccountsSelector builds an AccountsSelector from the config's
// {accounts: [...], owners: [...]} lists. A literal "*" in accounts
// selects every account regardless of owners.
func NewAccountsSelector(accounts, owners []string) AccountsSelector {
	s := AccountsSelector{pubkeys: make(map[[32]byte]struct{}), owners: make(map[[32]byte]struct{})}
	for _, a := range accounts {
		if a == "*" {
			s.matchAll = true
			continue
		}
		if pk, ok := decode32(a); ok {
			s.pubkeys[pk] = struct{}{}
		}
	}
	for _, o := range owners {
		if pk, ok := decode32(o); ok {
			s.owners[pk] = struct{}{}
		}
	}
	return s
}

// IsEmpty reports whether this selector matches nothing at all, allowing
// callers to treat an absent accounts_selector config object as "no
// filter configured".
func (s AccountsSelector) IsEmpty() bool {
	return !s.matchAll && len(s.pubkeys) == 0 && len(s.owners) == 0
}

// IsSelected reports whether pubkey/owner should be persisted.
func (s AccountsSelector) IsSelected(pubkey, owner [32]byte) bool {
	if s.matchAll {
		return true
	}
	if _, ok := s.pubkeys[pubkey]; ok {
		return true
	}
	_, ok := s.owners[owner]
	return ok
}

// TransactionSelector decides whether a TransactionRecord should be
// persisted, based on the pubkeys it mentions (account keys in its
// message) and whether it is a vote transaction.
type TransactionSelector struct {
	matchAllVotes bool
	matchAll      bool
	mentions      map[[32]byte]struct{}
}

// NewTransactionSelector builds a TransactionSelector from the config's
// {mentions: [...]} list. Recognized literals: "*"/"all" select every
// transaction; "all_votes" additionally selects vote transactions that
// would otherwise be filtered out.
func NewTransactionSelector(mentions []string) TransactionSelector {
	s := TransactionSelector{mentions: make(map[[32]byte]struct{})}
	for _, m := range mentions {
		switch m {
		case "*", "all":
			s.matchAll = true
		case "all_votes":
			s.matchAllVotes = true
		default:
			if pk, ok := decode32(m); ok {
				s.mentions[pk] = struct{}{}
			}
		}
	}
	return s
}

// IsEmpty reports whether this selector matches nothing.
func (s TransactionSelector) IsEmpty() bool {
	return !s.matchAll && !s.matchAllVotes && len(s.mentions) == 0
}

// IsSelected reports whether a transaction mentioning accountKeys, with
// vote status isVote, should be persisted.
func (s TransactionSelector) IsSelected(isVote bool, accountKeys [][32]byte) bool {
	if s.matchAll {
		return true
	}
	if isVote && s.matchAllVotes {
		return true
	}
	for _, k := range accountKeys {
		if _, ok := s.mentions[k]; ok {
			return true
		}
	}
	return false
}

func decode32(s string) ([32]byte, bool) {
	var out [32]byte
	b := base58.Decode(s)
	if len(b) != 32 {
		return out, false
	}
	copy(out[:], b)
	return out, true
}
