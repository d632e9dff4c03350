package usecase

import (
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/base/ptr"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/offering"
)

// SubmitProposal creates a standing bid, holding price × depositRateBps
// in escrow. When the acceptable set is already full the newcomer must
// beat the worst standing proposal and evicts it with a full refund.
func (im *impl) SubmitProposal(c ctx.Ctx, id offering.Id, proposer domain.Address, price, deposit int64, at time.Time) (int64, error) {
	im.locks.Lock(lockKey(id))
	defer im.locks.Unlock(lockKey(id))

	o, err := im.offeringRepo.FindOne(c, id)
	if err != nil {
		return 0, err
	}
	if err := im.refreshStatus(c, o, at); err != nil {
		return 0, err
	}
	if o.Status != offering.StatusRunning {
		return 0, xerrors.Errorf("status %s: %w", o.Status, domain.ErrOfferingNotRunning)
	}
	if !o.ProposalsEnabled() {
		return 0, xerrors.Errorf("offering %v: %w", id, domain.ErrProposalsDisabled)
	}
	// supply can be exhausted while a settlement is pending without the
	// status having ratcheted to ended yet
	if o.SupplyLeft == 0 {
		return 0, xerrors.Errorf("offering %v: %w", id, domain.ErrNoSupplyLeft)
	}

	standing, err := im.standingProposals(c, id)
	if err != nil {
		return 0, err
	}

	if price <= 0 || price%o.PriceStep != 0 || price >= o.BuyNowPrice {
		return 0, xerrors.Errorf("price %d: %w", price, domain.ErrInvalidPrice)
	}
	if floor := offering.Floor(o, standing); price < floor {
		return 0, xerrors.Errorf("price %d below floor %d: %w", price, floor, domain.ErrBelowAcceptableFloor)
	}

	hold := rateAmount(price, o.DepositRateBps)
	if deposit < hold {
		return 0, xerrors.Errorf("deposit %d, need %d: %w", deposit, hold, domain.ErrInsufficientDeposit)
	}

	proposal := &offering.Proposal{
		Id:         id,
		ProposalId: o.NextProposalId,
		Proposer:   proposer.ToLower(),
		Price:      price,
		Deposit:    hold,
		Acceptable: true,
		CreatedAt:  at,
	}

	set, err := im.setRepo.FindOne(c, id)
	if err != nil {
		return 0, err
	}

	err = im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if _, err := im.ledger.Withdraw(c, proposal.Proposer, deposit); err != nil {
			return err
		}
		// surplus over the held amount goes straight back
		if err := im.ledger.Credit(c, proposal.Proposer, deposit-hold); err != nil {
			return err
		}

		members := standing
		if int64(set.Len()) >= o.SupplyLeft {
			worstId, ok := set.Worst()
			if !ok {
				c.WithFields(log.Fields{
					"id":         id,
					"supplyLeft": o.SupplyLeft,
				}).Panic("full acceptable set is empty")
			}
			if err := im.evict(c, id, worstId); err != nil {
				return err
			}
			members = withoutProposal(members, worstId)
		}
		members = append(members, proposal)

		if err := im.proposalRepo.Create(c, proposal); err != nil {
			return err
		}

		set.ProposalIds = offering.Rank(members)
		if err := im.setRepo.Save(c, set); err != nil {
			return err
		}

		return im.offeringRepo.Update(c, id, offering.Patchable{
			NextProposalId: ptr.Int64(o.NextProposalId + 1),
		})
	})
	if err != nil {
		return 0, err
	}

	im.met.BumpSum("proposal.submit", 1)
	return proposal.ProposalId, nil
}

// ModifyProposal raises a standing bid. A new price at or above the
// buy-now price short-circuits into an immediate settlement at the
// buy-now price; otherwise the proposal is re-ranked in place, which can
// bring a previously evicted proposal back into the acceptable set.
func (im *impl) ModifyProposal(c ctx.Ctx, id offering.Id, proposer domain.Address, proposalId, newPrice, deposit int64, at time.Time) (*offering.SettlementResult, error) {
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

	p, err := im.proposalRepo.FindOne(c, id, proposalId)
	if err != nil {
		return nil, err
	}
	if !p.Proposer.Equals(proposer) {
		return nil, xerrors.Errorf("caller %s: %w", proposer, domain.ErrNotProposalOwner)
	}

	if newPrice <= p.Price {
		return nil, xerrors.Errorf("new price %d does not raise %d: %w", newPrice, p.Price, domain.ErrInvalidPrice)
	}
	if newPrice%o.PriceStep != 0 {
		return nil, xerrors.Errorf("new price %d: %w", newPrice, domain.ErrInvalidPrice)
	}

	if newPrice >= o.BuyNowPrice {
		return im.fastAccept(c, o, p, deposit)
	}

	return nil, im.reRank(c, o, p, newPrice, deposit)
}

// fastAccept settles a modified proposal as a buy-now purchase, funded
// by the already held deposit plus the newly attached one.
func (im *impl) fastAccept(c ctx.Ctx, o *offering.Offering, p *offering.Proposal, deposit int64) (*offering.SettlementResult, error) {
	if o.SupplyLeft == 0 {
		return nil, xerrors.Errorf("offering %v: %w", o.ToId(), domain.ErrNoSupplyLeft)
	}

	attached := p.Deposit + deposit
	if attached < o.BuyNowPrice+im.cfg.MintStorageFeeCap {
		return nil, xerrors.Errorf("attached %d, need %d: %w",
			attached, o.BuyNowPrice+im.cfg.MintStorageFeeCap, domain.ErrInsufficientDeposit)
	}

	id := o.ToId()
	set, err := im.setRepo.FindOne(c, id)
	if err != nil {
		return nil, err
	}

	err = im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if _, err := im.ledger.Withdraw(c, p.Proposer, deposit); err != nil {
			return err
		}
		if err := im.proposalRepo.Remove(c, id, p.ProposalId); err != nil {
			return err
		}
		if set.Remove(p.ProposalId) {
			if err := im.setRepo.Save(c, set); err != nil {
				return err
			}
		}
		return im.reserve(c, o)
	})
	if err != nil {
		return nil, err
	}

	return im.settle(c, o, p.Proposer, o.BuyNowPrice, attached)
}

// reRank raises the price in place, collects the additional hold and
// restores the proposal into the acceptable set when it had been
// evicted, displacing the current worst entry if the set is full.
func (im *impl) reRank(c ctx.Ctx, o *offering.Offering, p *offering.Proposal, newPrice, deposit int64) error {
	id := o.ToId()

	standing, err := im.standingProposals(c, id)
	if err != nil {
		return err
	}

	// the floor is computed as if the proposal's own standing were
	// released, so raising the set's worst entry is always possible
	others := withoutProposal(standing, p.ProposalId)
	if floor := offering.Floor(o, others); newPrice < floor {
		return xerrors.Errorf("price %d below floor %d: %w", newPrice, floor, domain.ErrBelowAcceptableFloor)
	}

	newHold := rateAmount(newPrice, o.DepositRateBps)
	delta := newHold - p.Deposit
	if deposit < delta {
		return xerrors.Errorf("deposit %d, need %d: %w", deposit, delta, domain.ErrInsufficientDeposit)
	}

	set, err := im.setRepo.FindOne(c, id)
	if err != nil {
		return err
	}

	err = im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if _, err := im.ledger.Withdraw(c, p.Proposer, deposit); err != nil {
			return err
		}
		if err := im.ledger.Credit(c, p.Proposer, deposit-delta); err != nil {
			return err
		}

		if !set.Contains(p.ProposalId) && int64(set.Len()) >= o.SupplyLeft {
			worstId, ok := set.Worst()
			if !ok {
				c.WithFields(log.Fields{
					"id":         id,
					"supplyLeft": o.SupplyLeft,
				}).Panic("full acceptable set is empty")
			}
			if err := im.evict(c, id, worstId); err != nil {
				return err
			}
			set.Remove(worstId)
			others = withoutProposal(others, worstId)
		}

		err := im.proposalRepo.Update(c, id, p.ProposalId, offering.ProposalPatchable{
			Price:      &newPrice,
			Deposit:    &newHold,
			Acceptable: ptr.Bool(true),
		})
		if err != nil {
			return err
		}

		updated := *p
		updated.Price = newPrice
		updated.Deposit = newHold
		updated.Acceptable = true
		members := append(others, &updated)

		set.ProposalIds = offering.Rank(members)
		return im.setRepo.Save(c, set)
	})
	if err != nil {
		return err
	}

	im.met.BumpSum("proposal.modify", 1)
	return nil
}

// RevokeProposal withdraws a standing bid. The held deposit is refunded
// minus the revocation fee, which goes to the platform fee account. An
// already evicted proposal was refunded in full at eviction time, so
// revoking it fails instead of paying twice.
func (im *impl) RevokeProposal(c ctx.Ctx, id offering.Id, proposer domain.Address, proposalId int64, at time.Time) (int64, error) {
	im.locks.Lock(lockKey(id))
	defer im.locks.Unlock(lockKey(id))

	o, err := im.offeringRepo.FindOne(c, id)
	if err != nil {
		return 0, err
	}
	if err := im.refreshStatus(c, o, at); err != nil {
		return 0, err
	}
	if o.Status != offering.StatusRunning {
		return 0, xerrors.Errorf("status %s: %w", o.Status, domain.ErrOfferingNotRunning)
	}

	p, err := im.proposalRepo.FindOne(c, id, proposalId)
	if err != nil {
		return 0, err
	}
	if !p.Proposer.Equals(proposer) {
		return 0, xerrors.Errorf("caller %s: %w", proposer, domain.ErrNotProposalOwner)
	}
	if !p.Acceptable {
		return 0, xerrors.Errorf("proposal %d: %w", proposalId, domain.ErrAlreadyOutbid)
	}

	fee := rateAmount(p.Price, o.RevokeFeeRateBps)
	if fee > p.Deposit {
		fee = p.Deposit
	}
	refund := p.Deposit - fee

	set, err := im.setRepo.FindOne(c, id)
	if err != nil {
		return 0, err
	}

	err = im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if err := im.proposalRepo.Remove(c, id, proposalId); err != nil {
			return err
		}
		if set.Remove(proposalId) {
			if err := im.setRepo.Save(c, set); err != nil {
				return err
			}
		}
		if err := im.ledger.Credit(c, p.Proposer, refund); err != nil {
			return err
		}
		return im.ledger.Credit(c, im.cfg.FeeAccount, fee)
	})
	if err != nil {
		return 0, err
	}

	im.met.BumpSum("proposal.revoke", 1)
	im.met.BumpSum("proposal.revoke.fee", float64(fee))
	return refund, nil
}

func withoutProposal(proposals []*offering.Proposal, proposalId int64) []*offering.Proposal {
	res := make([]*offering.Proposal, 0, len(proposals))
	for _, p := range proposals {
		if p.ProposalId != proposalId {
			res = append(res, p)
		}
	}
	return res
}
