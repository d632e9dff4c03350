package asset

import (
	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
)

// MintRequest asks the external asset service to mint or transfer one
// unit to the recipient.
type MintRequest struct {
	Collection domain.Address           `json:"collection"`
	Series     string                   `json:"series"`
	Recipient  domain.Address           `json:"recipient"`
	Royalties  map[domain.Address]int64 `json:"royalties,omitempty"`
}

// MintResult carries the minted asset id and the storage the new record
// consumed, which the caller's escrow is debited for.
type MintResult struct {
	AssetId      string `json:"assetId"`
	StorageBytes int64  `json:"storageBytes"`
}

// Minter is the opaque external mint/transfer service. A call that
// never resolves is treated the same as a failed one by callers.
type Minter interface {
	Mint(ctx ctx.Ctx, req *MintRequest) (*MintResult, error)
}
