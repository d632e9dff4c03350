package offering

import (
	"time"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
)

// Proposal is one standing bid for a unit of an offering's supply.
type Proposal struct {
	Id         `bson:"inline"`
	ProposalId int64          `json:"proposalId" bson:"proposalId"`
	Proposer   domain.Address `json:"proposer" bson:"proposer"`
	Price      int64          `json:"price" bson:"price"`
	// amount held in escrow while the proposal stands
	Deposit    int64     `json:"deposit" bson:"deposit"`
	Acceptable bool      `json:"acceptable" bson:"acceptable"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

type ProposalPatchable struct {
	Price      *int64 `bson:"price,omitempty"`
	Deposit    *int64 `bson:"deposit,omitempty"`
	Acceptable *bool  `bson:"acceptable,omitempty"`
}

type ProposalFindAllOptions struct {
	OfferingId *Id
	Proposer   *domain.Address
	Acceptable *bool
	Offset     *int32
	Limit      *int32
	Sort       *string
}

type ProposalFindAllOptionsFunc func(*ProposalFindAllOptions) error

func GetProposalFindAllOptions(opts ...ProposalFindAllOptionsFunc) (ProposalFindAllOptions, error) {
	res := ProposalFindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func ProposalWithOfferingId(id Id) ProposalFindAllOptionsFunc {
	return func(options *ProposalFindAllOptions) error {
		options.OfferingId = &id
		return nil
	}
}

// ProposalWithProposer is the per-proposer reverse index lookup.
func ProposalWithProposer(proposer domain.Address) ProposalFindAllOptionsFunc {
	return func(options *ProposalFindAllOptions) error {
		options.Proposer = &proposer
		return nil
	}
}

func ProposalWithAcceptable(acceptable bool) ProposalFindAllOptionsFunc {
	return func(options *ProposalFindAllOptions) error {
		options.Acceptable = &acceptable
		return nil
	}
}

func ProposalWithPagination(offset int32, limit int32) ProposalFindAllOptionsFunc {
	return func(options *ProposalFindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

func ProposalWithSort(sort string) ProposalFindAllOptionsFunc {
	return func(options *ProposalFindAllOptions) error {
		options.Sort = &sort
		return nil
	}
}

type ProposalRepo interface {
	FindAll(ctx ctx.Ctx, opts ...ProposalFindAllOptionsFunc) ([]*Proposal, error)
	Count(ctx ctx.Ctx, opts ...ProposalFindAllOptionsFunc) (int, error)
	FindOne(ctx ctx.Ctx, id Id, proposalId int64) (*Proposal, error)
	Create(ctx ctx.Ctx, proposal *Proposal) error
	Update(ctx ctx.Ctx, id Id, proposalId int64, patchable ProposalPatchable) error
	Remove(ctx ctx.Ctx, id Id, proposalId int64) error
	RemoveAll(ctx ctx.Ctx, opts ...ProposalFindAllOptionsFunc) error
}
