package usecase

import (
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/offering"
)

func (im *impl) Create(c ctx.Ctx, payload *offering.CreateOfferingPayload, at time.Time) (*offering.Offering, error) {
	if err := im.validateCreatePayload(payload, at); err != nil {
		return nil, err
	}

	o := &offering.Offering{
		Id:               payload.Id,
		Seller:           payload.Seller.ToLower(),
		SupplyTotal:      payload.Supply,
		SupplyLeft:       payload.Supply,
		BuyNowPrice:      payload.BuyNowPrice,
		MinProposalPrice: payload.MinProposalPrice,
		PriceStep:        im.cfg.PriceStep,
		DepositRateBps:   im.cfg.DepositRateBps,
		RevokeFeeRateBps: im.cfg.RevokeFeeRateBps,
		StartTime:        payload.StartTime,
		EndTime:          payload.EndTime,
		Status:           offering.StatusUnstarted,
		NextProposalId:   1,
		Royalties:        payload.Royalties,
		CreatedAt:        at,
	}
	o.Status = offering.NextStatus(o, at)

	cost, err := im.storageCost(o)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.ToId(),
		}).Error("failed to im.storageCost")
		return nil, err
	}
	o.StorageDeposit = cost

	err = im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if _, err := im.ledger.Withdraw(c, o.Seller, cost); err != nil {
			return err
		}
		return im.offeringRepo.Create(c, o)
	})
	if err != nil {
		return nil, err
	}

	im.met.BumpSum("create.count", 1)
	return o, nil
}

func (im *impl) validateCreatePayload(payload *offering.CreateOfferingPayload, at time.Time) error {
	if payload.Collection.IsEmpty() || payload.Series == "" || payload.Seller.IsEmpty() {
		return xerrors.Errorf("incomplete listing key: %w", domain.ErrBadParamInput)
	}
	if payload.Kind != offering.SaleKindPrimary && payload.Kind != offering.SaleKindResale {
		return xerrors.Errorf("unknown sale kind %q: %w", payload.Kind, domain.ErrBadParamInput)
	}
	if payload.Supply < 1 || payload.Supply > im.cfg.MaxSupply {
		return xerrors.Errorf("supply %d out of bounds: %w", payload.Supply, domain.ErrInvalidSupply)
	}
	if payload.BuyNowPrice <= 0 || payload.BuyNowPrice%im.cfg.PriceStep != 0 {
		return xerrors.Errorf("buy-now price %d: %w", payload.BuyNowPrice, domain.ErrInvalidPrice)
	}
	if payload.MinProposalPrice != nil {
		min := *payload.MinProposalPrice
		if min <= 0 || min%im.cfg.PriceStep != 0 || min >= payload.BuyNowPrice {
			return xerrors.Errorf("min proposal price %d: %w", min, domain.ErrInvalidPrice)
		}
	}
	if payload.EndTime != nil {
		from := at
		if payload.StartTime != nil {
			from = *payload.StartTime
		}
		duration := payload.EndTime.Sub(from)
		if duration < im.cfg.MinDuration || duration > im.cfg.MaxDuration {
			return xerrors.Errorf("duration %s: %w", duration, domain.ErrInvalidDuration)
		}
	}
	return nil
}

// Get returns the offering with its lifecycle status evaluated at the
// given instant. The read path takes no lock and persists nothing.
func (im *impl) Get(c ctx.Ctx, id offering.Id, at time.Time) (*offering.Offering, error) {
	o, err := im.offeringRepo.FindOne(c, id)
	if err != nil {
		return nil, err
	}

	o.Status = offering.NextStatus(o, at)
	return o, nil
}

func (im *impl) FindAll(c ctx.Ctx, opts ...offering.FindAllOptionsFunc) ([]*offering.Offering, error) {
	return im.offeringRepo.FindAll(c, opts...)
}

func (im *impl) FindAllProposals(c ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) ([]*offering.Proposal, error) {
	return im.proposalRepo.FindAll(c, opts...)
}

// Conclude refunds every held deposit, credits the seller's storage
// deposit back and removes the offering with its proposals and
// acceptable set.
func (im *impl) Conclude(c ctx.Ctx, id offering.Id, caller domain.Address, at time.Time) error {
	im.locks.Lock(lockKey(id))
	defer im.locks.Unlock(lockKey(id))

	o, err := im.offeringRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !o.Seller.Equals(caller) {
		return xerrors.Errorf("caller %s: %w", caller, domain.ErrNotSeller)
	}
	if err := im.refreshStatus(c, o, at); err != nil {
		return err
	}
	if o.Status == offering.StatusRunning && o.EndTime != nil {
		return xerrors.Errorf("offering runs until %s: %w", o.EndTime, domain.ErrOfferingStillRunning)
	}
	if o.PendingSettlements > 0 {
		return xerrors.Errorf("%d settlements in flight: %w", o.PendingSettlements, domain.ErrConflict)
	}

	proposals, err := im.proposalRepo.FindAll(c, offering.ProposalWithOfferingId(id))
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to proposalRepo.FindAll")
		return err
	}

	err = im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		for _, p := range proposals {
			if err := im.ledger.Credit(c, p.Proposer, p.Deposit); err != nil {
				return err
			}
		}
		if err := im.proposalRepo.RemoveAll(c, offering.ProposalWithOfferingId(id)); err != nil {
			return err
		}
		if err := im.setRepo.Remove(c, id); err != nil {
			return err
		}
		if err := im.ledger.Credit(c, o.Seller, o.StorageDeposit); err != nil {
			return err
		}
		return im.offeringRepo.Remove(c, id)
	})
	if err != nil {
		return err
	}

	im.met.BumpSum("conclude.count", 1)
	return nil
}
