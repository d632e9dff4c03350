package usecase

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/asset"
	"github.com/x-xyz/launchpad/domain/offering"
)

// BuyNow purchases one unit at the fixed price. The attached deposit
// must cover the price plus the storage fee cap; whatever the measured
// storage cost leaves over is refunded.
func (im *impl) BuyNow(c bCtx.Ctx, id offering.Id, buyer domain.Address, deposit int64, at time.Time) (*offering.SettlementResult, error) {
	im.locks.Lock(lockKey(id))
	defer im.locks.Unlock(lockKey(id))

	o, err := im.offeringRepo.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if err := im.refreshStatus(c, o, at); err != nil {
		return nil, err
	}
	if o.Status != offering.StatusRunning {
		return nil, xerrors.Errorf("status %s: %w", o.Status, domain.ErrOfferingNotRunning)
	}
	if o.SupplyLeft == 0 {
		return nil, xerrors.Errorf("offering %v: %w", id, domain.ErrNoSupplyLeft)
	}

	need := o.BuyNowPrice + im.cfg.MintStorageFeeCap
	if deposit < need {
		return nil, xerrors.Errorf("deposit %d, need %d: %w", deposit, need, domain.ErrInsufficientDeposit)
	}

	err = im.q.RunWithTransaction(c, func(c bCtx.Ctx) error {
		if _, err := im.ledger.Withdraw(c, buyer, deposit); err != nil {
			return err
		}
		return im.reserve(c, o)
	})
	if err != nil {
		return nil, err
	}

	return im.settle(c, o, buyer, o.BuyNowPrice, deposit)
}

// AcceptProposals settles the best count standing proposals, funded by
// their held deposits, best first. A mint failure rolls back the
// failing settlement and aborts the batch; settlements already resolved
// stay committed and are returned alongside the error.
func (im *impl) AcceptProposals(c bCtx.Ctx, id offering.Id, seller domain.Address, count int, at time.Time) ([]*offering.SettlementResult, error) {
	im.locks.Lock(lockKey(id))
	defer im.locks.Unlock(lockKey(id))

	o, err := im.offeringRepo.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if !o.Seller.Equals(seller) {
		return nil, xerrors.Errorf("caller %s: %w", seller, domain.ErrNotSeller)
	}
	if err := im.refreshStatus(c, o, at); err != nil {
		return nil, err
	}
	if o.Status != offering.StatusRunning {
		return nil, xerrors.Errorf("status %s: %w", o.Status, domain.ErrOfferingNotRunning)
	}
	if count <= 0 {
		return nil, xerrors.Errorf("count %d: %w", count, domain.ErrBadParamInput)
	}

	set, err := im.setRepo.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if count > set.Len() {
		return nil, xerrors.Errorf("%d standing, %d requested: %w", set.Len(), count, domain.ErrInsufficientProposals)
	}

	// the best entries sit at the tail of the worst-first ordering
	accepted := make([]int64, count)
	copy(accepted, set.ProposalIds[set.Len()-count:])

	results := []*offering.SettlementResult{}
	for i := len(accepted) - 1; i >= 0; i-- {
		p := im.mustFindProposal(c, id, accepted[i])

		err = im.q.RunWithTransaction(c, func(c bCtx.Ctx) error {
			if err := im.proposalRepo.Remove(c, id, p.ProposalId); err != nil {
				return err
			}
			set.Remove(p.ProposalId)
			if err := im.setRepo.Save(c, set); err != nil {
				return err
			}
			return im.reserve(c, o)
		})
		if err != nil {
			return results, err
		}

		res, err := im.settle(c, o, p.Proposer, p.Price, p.Deposit)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

// reserve persists the optimistic reservation of one unit. It runs
// before the external mint call so any observer, including another
// process, sees the decremented supply while the call is pending.
func (im *impl) reserve(c bCtx.Ctx, o *offering.Offering) error {
	o.SupplyLeft--
	o.PendingSettlements++
	err := im.offeringRepo.Update(c, o.ToId(), offering.Patchable{
		SupplyLeft:         &o.SupplyLeft,
		PendingSettlements: &o.PendingSettlements,
	})
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.ToId(),
		}).Error("failed to offeringRepo.Update")
		return err
	}
	return nil
}

// settle drives the invoke and resolve phases for one reserved unit.
// The reservation must already be persisted. On mint failure the
// attached amount is refunded in full and the reservation is undone; on
// success the seller is paid, the measured storage cost is collected
// and the surplus goes back to the buyer.
func (im *impl) settle(c bCtx.Ctx, o *offering.Offering, buyer domain.Address, price, attached int64) (*offering.SettlementResult, error) {
	defer im.met.BumpTime("settle.time").End()

	id := o.ToId()
	attemptId := uuid.NewString()

	minted, mintErr := im.mint(c, &asset.MintRequest{
		Collection: id.Collection,
		Series:     id.Series,
		Recipient:  buyer,
		Royalties:  o.Royalties,
	})
	if mintErr != nil {
		rollbackErr := im.q.RunWithTransaction(c, func(c bCtx.Ctx) error {
			if err := im.ledger.Credit(c, buyer, attached); err != nil {
				return err
			}
			o.SupplyLeft++
			o.PendingSettlements--
			return im.offeringRepo.Update(c, id, offering.Patchable{
				SupplyLeft:         &o.SupplyLeft,
				PendingSettlements: &o.PendingSettlements,
			})
		})
		if rollbackErr != nil {
			// both the external call and its compensation failed; this
			// cannot be repaired in-line
			c.WithFields(log.Fields{
				"err":       rollbackErr,
				"mintErr":   mintErr,
				"id":        id,
				"attemptId": attemptId,
			}).Panic("settlement rollback failed")
		}

		im.met.BumpSum("settle.failed", 1)
		c.WithFields(log.Fields{
			"err":       mintErr,
			"id":        id,
			"attemptId": attemptId,
			"buyer":     buyer,
		}).Error("mint failed, settlement rolled back")
		return nil, xerrors.Errorf("attempt %s: %w", attemptId, domain.ErrMintFailed)
	}

	storageCost := minted.StorageBytes * im.cfg.StorageCostPerByte
	err := im.q.RunWithTransaction(c, func(c bCtx.Ctx) error {
		if err := im.ledger.Credit(c, o.Seller, price); err != nil {
			return err
		}
		surplus := attached - price - storageCost
		if surplus >= 0 {
			if err := im.ledger.Credit(c, buyer, surplus); err != nil {
				return err
			}
		} else {
			// measured cost exceeded the fee cap collected up front;
			// the remainder comes out of the buyer's escrow balance
			if err := im.ledger.Debit(c, buyer, -surplus); err != nil {
				return err
			}
		}

		o.PendingSettlements--
		if err := im.offeringRepo.Update(c, id, offering.Patchable{
			PendingSettlements: &o.PendingSettlements,
		}); err != nil {
			return err
		}

		return im.prune(c, o)
	})
	if err != nil {
		return nil, err
	}

	im.met.BumpSum("settle.succeeded", 1)
	return &offering.SettlementResult{
		AttemptId:    attemptId,
		AssetId:      minted.AssetId,
		Buyer:        buyer.ToLower(),
		Price:        price,
		StorageBytes: minted.StorageBytes,
	}, nil
}

// mint invokes the external asset service on the bounded worker pool.
// A call that outlives the timeout is treated as failed; no further
// callback will arrive, so the caller rolls back.
func (im *impl) mint(c bCtx.Ctx, req *asset.MintRequest) (*asset.MintResult, error) {
	type outcome struct {
		res *asset.MintResult
		err error
	}

	mintCtx, cancel := bCtx.WithTimeout(c, im.cfg.MintTimeout)
	defer cancel()

	out := make(chan outcome, 1)
	err := im.workers.ScheduleWithTimeout(scheduleTimeout, func() {
		res, err := im.minter.Mint(mintCtx, req)
		out <- outcome{res, err}
	})
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to workers.ScheduleWithTimeout")
		return nil, err
	}

	select {
	case o := <-out:
		return o.res, o.err
	case <-mintCtx.Done():
		return nil, mintCtx.Err()
	}
}

// prune evicts worst entries with a full refund until the acceptable
// set fits the remaining supply again. Running it twice in a row
// without an intervening mutation is a no-op the second time.
func (im *impl) prune(c bCtx.Ctx, o *offering.Offering) error {
	set, err := im.setRepo.FindOne(c, o.ToId())
	if err != nil {
		return err
	}

	pruned := false
	for int64(set.Len()) > o.SupplyLeft {
		worstId, _ := set.Worst()
		if err := im.evict(c, o.ToId(), worstId); err != nil {
			return err
		}
		set.ProposalIds = set.ProposalIds[1:]
		pruned = true
	}

	if !pruned {
		return nil
	}
	return im.setRepo.Save(c, set)
}
