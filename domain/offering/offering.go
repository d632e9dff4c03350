package offering

import (
	"time"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
)

// SaleKind tags the two composite-key shapes an offering can have: a
// primary sale keyed by (collection, series) and a resale keyed by
// (asset, item index). Both share one record shape.
type SaleKind string

const (
	SaleKindPrimary SaleKind = "primary"
	SaleKindResale  SaleKind = "resale"
)

type Status string

const (
	StatusUnstarted Status = "unstarted"
	StatusRunning   Status = "running"
	StatusEnded     Status = "ended"
)

// Id is the composite listing key.
type Id struct {
	Collection domain.Address `json:"collection" bson:"collection"`
	Series     string         `json:"series" bson:"series"`
	Kind       SaleKind       `json:"kind" bson:"kind"`
}

type Offering struct {
	Id     `bson:"inline"`
	Seller domain.Address `json:"seller" bson:"seller"`

	SupplyTotal int64 `json:"supplyTotal" bson:"supplyTotal"`
	SupplyLeft  int64 `json:"supplyLeft" bson:"supplyLeft"`

	// prices are integers in the smallest currency unit
	BuyNowPrice int64 `json:"buyNowPrice" bson:"buyNowPrice"`
	// nil disables open proposals for this offering
	MinProposalPrice *int64 `json:"minProposalPrice" bson:"minProposalPrice,omitempty"`
	PriceStep        int64  `json:"priceStep" bson:"priceStep"`

	// rates are frozen at creation so one offering never mixes conventions
	DepositRateBps   int64 `json:"depositRateBps" bson:"depositRateBps"`
	RevokeFeeRateBps int64 `json:"revokeFeeRateBps" bson:"revokeFeeRateBps"`

	StartTime *time.Time `json:"startTime" bson:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime" bson:"endTime,omitempty"`

	Status Status `json:"status" bson:"status"`

	// never reused, even after proposals are removed
	NextProposalId int64 `json:"nextProposalId" bson:"nextProposalId"`

	// count of reservations awaiting an external settlement result
	PendingSettlements int64 `json:"pendingSettlements" bson:"pendingSettlements"`

	// royalty table forwarded to the mint service, bps per receiver
	Royalties map[domain.Address]int64 `json:"royalties" bson:"royalties,omitempty"`

	// storage cost charged to the seller at creation, credited back
	// when the offering record is removed
	StorageDeposit int64 `json:"storageDeposit" bson:"storageDeposit"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (o *Offering) ToId() Id {
	return Id{
		Collection: o.Collection,
		Series:     o.Series,
		Kind:       o.Kind,
	}
}

// ProposalsEnabled reports whether open price proposals are allowed.
func (o *Offering) ProposalsEnabled() bool {
	return o.MinProposalPrice != nil
}

// NextStatus computes the lifecycle transition for the given clock
// reading. Ended is a ratchet: the external clock is not strictly
// trusted input and may regress, so a terminal offering never reverts.
// Running never falls back to Unstarted either.
func NextStatus(o *Offering, now time.Time) Status {
	if o.Status == StatusEnded {
		return StatusEnded
	}
	// exhausted supply only ends the offering once no settlement is in
	// flight; a failed mint restores the reserved unit
	if (o.SupplyLeft == 0 && o.PendingSettlements == 0) || (o.EndTime != nil && !now.Before(*o.EndTime)) {
		return StatusEnded
	}
	if o.Status == StatusRunning {
		return StatusRunning
	}
	if o.StartTime == nil || !now.Before(*o.StartTime) {
		return StatusRunning
	}
	return StatusUnstarted
}

type Patchable struct {
	SupplyLeft         *int64  `bson:"supplyLeft,omitempty"`
	Status             *Status `bson:"status,omitempty"`
	NextProposalId     *int64  `bson:"nextProposalId,omitempty"`
	PendingSettlements *int64  `bson:"pendingSettlements,omitempty"`
}

type FindAllOptions struct {
	Seller *domain.Address
	Kind   *SaleKind
	Status *Status
	Offset *int32
	Limit  *int32
	Sort   *string
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func WithSeller(seller domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Seller = &seller
		return nil
	}
}

func WithKind(kind SaleKind) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Kind = &kind
		return nil
	}
}

func WithStatus(status Status) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Status = &status
		return nil
	}
}

func WithPagination(offset int32, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

func WithSort(sort string) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Sort = &sort
		return nil
	}
}

// Repo is the offering registry: offerings keyed by composite Id with a
// secondary index on seller.
type Repo interface {
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Offering, error)
	Count(ctx ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	FindOne(ctx ctx.Ctx, id Id) (*Offering, error)
	// Create fails with domain.ErrOfferingAlreadyListed on a duplicate key
	Create(ctx ctx.Ctx, offering *Offering) error
	Update(ctx ctx.Ctx, id Id, patchable Patchable) error
	Remove(ctx ctx.Ctx, id Id) error
}

// CreateOfferingPayload carries caller input for create_offering.
type CreateOfferingPayload struct {
	Id
	Seller           domain.Address
	Supply           int64
	BuyNowPrice      int64
	MinProposalPrice *int64
	StartTime        *time.Time
	EndTime          *time.Time
	Royalties        map[domain.Address]int64
}

// SettlementResult reports one completed settlement.
type SettlementResult struct {
	AttemptId    string         `json:"attemptId"`
	AssetId      string         `json:"assetId"`
	Buyer        domain.Address `json:"buyer"`
	Price        int64          `json:"price"`
	StorageBytes int64          `json:"storageBytes"`
}

type UseCase interface {
	Create(ctx ctx.Ctx, payload *CreateOfferingPayload, at time.Time) (*Offering, error)
	Get(ctx ctx.Ctx, id Id, at time.Time) (*Offering, error)
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Offering, error)
	Conclude(ctx ctx.Ctx, id Id, caller domain.Address, at time.Time) error

	SubmitProposal(ctx ctx.Ctx, id Id, proposer domain.Address, price, deposit int64, at time.Time) (int64, error)
	// ModifyProposal returns a settlement result iff the new price
	// reached the buy-now price (fast accept)
	ModifyProposal(ctx ctx.Ctx, id Id, proposer domain.Address, proposalId, newPrice, deposit int64, at time.Time) (*SettlementResult, error)
	// RevokeProposal returns the refunded amount, net of the revocation fee
	RevokeProposal(ctx ctx.Ctx, id Id, proposer domain.Address, proposalId int64, at time.Time) (int64, error)
	FindAllProposals(ctx ctx.Ctx, opts ...ProposalFindAllOptionsFunc) ([]*Proposal, error)

	BuyNow(ctx ctx.Ctx, id Id, buyer domain.Address, deposit int64, at time.Time) (*SettlementResult, error)
	AcceptProposals(ctx ctx.Ctx, id Id, seller domain.Address, count int, at time.Time) ([]*SettlementResult, error)
}
