package domain

import "strings"

// Table is a mongo collection name
type Table string

const (
	TableOfferings      Table = "offerings"
	TableProposals      Table = "proposals"
	TableAcceptableSets Table = "acceptable_sets"
	TableEscrowAccounts Table = "escrow_accounts"
)

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

// Address identifies a participant or an asset collection. The gateway in
// front of this service resolves identity, so addresses are opaque here.
type Address string

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}
