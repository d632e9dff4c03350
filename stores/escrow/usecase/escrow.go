package usecase

import (
	"golang.org/x/xerrors"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/base/metrics"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/escrow"
)

type impl struct {
	repo escrow.Repo
	met  metrics.Service
}

func New(repo escrow.Repo) escrow.Ledger {
	return &impl{
		repo: repo,
		met:  metrics.New("escrow"),
	}
}

func (im *impl) Deposit(ctx ctx.Ctx, participant domain.Address, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, xerrors.Errorf("deposit amount %d: %w", amount, domain.ErrBadParamInput)
	}

	balance, err := im.repo.Add(ctx, participant, amount)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
		}).Error("failed to repo.Add")
		return 0, err
	}

	im.met.BumpSum("deposit.amount", float64(amount))
	return balance, nil
}

func (im *impl) Withdraw(ctx ctx.Ctx, participant domain.Address, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, xerrors.Errorf("withdraw amount %d: %w", amount, domain.ErrBadParamInput)
	}

	if err := im.repo.AddIfAtLeast(ctx, participant, -amount, amount); err != nil {
		if err != domain.ErrInsufficientBalance {
			ctx.WithFields(log.Fields{
				"err":         err,
				"participant": participant,
			}).Error("failed to repo.AddIfAtLeast")
		}
		return 0, err
	}

	balance, err := im.Balance(ctx, participant)
	if err != nil {
		return 0, err
	}

	im.met.BumpSum("withdraw.amount", float64(amount))
	return balance, nil
}

func (im *impl) Balance(ctx ctx.Ctx, participant domain.Address) (int64, error) {
	account, err := im.repo.FindOne(ctx, participant)
	if err == domain.ErrNotFound {
		return 0, nil
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
		}).Error("failed to repo.FindOne")
		return 0, err
	}

	return account.Balance, nil
}

func (im *impl) Credit(ctx ctx.Ctx, participant domain.Address, amount int64) error {
	if amount == 0 {
		return nil
	}
	if amount < 0 {
		ctx.WithFields(log.Fields{
			"participant": participant,
			"amount":      amount,
		}).Panic("negative escrow credit")
	}

	if _, err := im.repo.Add(ctx, participant, amount); err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
			"amount":      amount,
		}).Error("failed to repo.Add")
		return err
	}

	return nil
}

func (im *impl) Debit(ctx ctx.Ctx, participant domain.Address, amount int64) error {
	if amount == 0 {
		return nil
	}
	if amount < 0 {
		ctx.WithFields(log.Fields{
			"participant": participant,
			"amount":      amount,
		}).Panic("negative escrow debit")
	}

	balance, err := im.repo.Add(ctx, participant, -amount)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
			"amount":      amount,
		}).Error("failed to repo.Add")
		return err
	}

	if balance < 0 {
		// a debit is only issued after its amount was validated, so a
		// negative balance means a prior accounting bug, not caller error
		ctx.WithFields(log.Fields{
			"participant": participant,
			"amount":      amount,
			"balance":     balance,
		}).Panic("escrow balance went negative")
	}

	return nil
}
