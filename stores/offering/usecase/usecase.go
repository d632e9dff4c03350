package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/kmutex"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/base/metrics"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/asset"
	"github.com/x-xyz/launchpad/domain/escrow"
	"github.com/x-xyz/launchpad/domain/keys"
	"github.com/x-xyz/launchpad/domain/offering"
)

const (
	bpsDenominator  = 10000
	scheduleTimeout = 3 * time.Second
)

// MarketplaceCfg carries the deployment-wide marketplace constants.
// DepositRateBps and RevokeFeeRateBps are frozen onto each offering at
// creation so a rate change never mixes conventions within one
// offering's lifetime.
type MarketplaceCfg struct {
	PriceStep          int64          `yaml:"priceStep"`
	DepositRateBps     int64          `yaml:"depositRateBps"`
	RevokeFeeRateBps   int64          `yaml:"revokeFeeRateBps"`
	FeeAccount         domain.Address `yaml:"feeAccount"`
	StorageCostPerByte int64          `yaml:"storageCostPerByte"`
	// upper bound on the storage cost of one minted asset record,
	// collected with the attached deposit before the measured cost is
	// known
	MintStorageFeeCap int64         `yaml:"mintStorageFeeCap"`
	MinDuration       time.Duration `yaml:"minDuration"`
	MaxDuration       time.Duration `yaml:"maxDuration"`
	MaxSupply         int64         `yaml:"maxSupply"`
	MintTimeout       time.Duration `yaml:"mintTimeout"`
	MintWorkers       int           `yaml:"mintWorkers"`
}

// TxnRunner runs a function inside a storage transaction so multi-record
// mutations commit or abort as one. query.Mongo satisfies it.
type TxnRunner interface {
	RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error
}

type Config struct {
	OfferingRepo      offering.Repo
	ProposalRepo      offering.ProposalRepo
	AcceptableSetRepo offering.AcceptableSetRepo
	Ledger            escrow.Ledger
	Minter            asset.Minter
	Query             TxnRunner
	Marketplace       MarketplaceCfg
}

type impl struct {
	offeringRepo offering.Repo
	proposalRepo offering.ProposalRepo
	setRepo      offering.AcceptableSetRepo
	ledger       escrow.Ledger
	minter       asset.Minter
	q            TxnRunner
	cfg          MarketplaceCfg
	locks        *kmutex.Kmutex
	workers      *goroutines.Pool
	met          metrics.Service
}

func New(cfg *Config) offering.UseCase {
	workers := cfg.Marketplace.MintWorkers
	if workers <= 0 {
		workers = 32
	}
	return &impl{
		offeringRepo: cfg.OfferingRepo,
		proposalRepo: cfg.ProposalRepo,
		setRepo:      cfg.AcceptableSetRepo,
		ledger:       cfg.Ledger,
		minter:       cfg.Minter,
		q:            cfg.Query,
		cfg:          cfg.Marketplace,
		locks:        kmutex.New(),
		workers:      goroutines.NewPool(workers, goroutines.WithTaskQueueLength(workers*4)),
		met:          metrics.New("offering"),
	}
}

// lockKey serializes every mutation of one offering, emulating a
// single-threaded host within this process. Cross-process safety rests
// on reservations being persisted before any external call.
func lockKey(id offering.Id) string {
	return keys.CustomKey(":", id.Collection.ToLowerStr(), id.Series, string(id.Kind))
}

// rateAmount computes amount scaled by a basis-point rate, truncating
// toward zero.
func rateAmount(amount, bps int64) int64 {
	return decimal.New(amount, 0).
		Mul(decimal.New(bps, 0)).
		Div(decimal.New(bpsDenominator, 0)).
		IntPart()
}

// storageCost prices a persisted record by its encoded size.
func (im *impl) storageCost(v interface{}) (int64, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return 0, err
	}
	return int64(len(raw)) * im.cfg.StorageCostPerByte, nil
}

// refreshStatus applies the lifecycle transition for the given clock
// reading and persists it when it moved.
func (im *impl) refreshStatus(c ctx.Ctx, o *offering.Offering, at time.Time) error {
	next := offering.NextStatus(o, at)
	if next == o.Status {
		return nil
	}

	o.Status = next
	if err := im.offeringRepo.Update(c, o.ToId(), offering.Patchable{Status: &next}); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"id":     o.ToId(),
			"status": next,
		}).Error("failed to offeringRepo.Update")
		return err
	}

	return nil
}

// standingProposals loads every proposal currently marked acceptable.
func (im *impl) standingProposals(c ctx.Ctx, id offering.Id) ([]*offering.Proposal, error) {
	proposals, err := im.proposalRepo.FindAll(c,
		offering.ProposalWithOfferingId(id),
		offering.ProposalWithAcceptable(true),
	)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to proposalRepo.FindAll")
		return nil, err
	}
	return proposals, nil
}

// mustFindProposal loads a proposal an index claims to exist. A miss
// means the ledger and the acceptable set disagree, which is a prior
// bug, so the operation halts instead of attempting repair.
func (im *impl) mustFindProposal(c ctx.Ctx, id offering.Id, proposalId int64) *offering.Proposal {
	p, err := im.proposalRepo.FindOne(c, id, proposalId)
	if err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"id":         id,
			"proposalId": proposalId,
		}).Panic("acceptable set references a missing proposal")
	}
	return p
}

// evict marks a standing proposal outbid and refunds its held deposit
// in full. The caller is responsible for dropping the id from the
// acceptable set.
func (im *impl) evict(c ctx.Ctx, id offering.Id, proposalId int64) error {
	p := im.mustFindProposal(c, id, proposalId)

	zero := int64(0)
	acceptable := false
	err := im.proposalRepo.Update(c, id, proposalId, offering.ProposalPatchable{
		Deposit:    &zero,
		Acceptable: &acceptable,
	})
	if err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"id":         id,
			"proposalId": proposalId,
		}).Error("failed to proposalRepo.Update")
		return err
	}

	if err := im.ledger.Credit(c, p.Proposer, p.Deposit); err != nil {
		return err
	}

	im.met.BumpSum("proposal.evicted", 1)
	return nil
}
