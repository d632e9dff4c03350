package escrow

import (
	"time"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
)

// Account is one participant's prepaid balance. It covers attached
// deposits and the storage cost of records the participant causes to be
// persisted. The balance is never negative.
type Account struct {
	Participant domain.Address `json:"participant" bson:"participant"`
	Balance     int64          `json:"balance" bson:"balance"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type Repo interface {
	FindOne(ctx ctx.Ctx, participant domain.Address) (*Account, error)
	// Add applies a signed delta and returns the new balance, creating
	// the account when missing
	Add(ctx ctx.Ctx, participant domain.Address, delta int64) (int64, error)
	// AddIfAtLeast applies a signed delta only when the current balance
	// is at least min; it fails with domain.ErrInsufficientBalance
	// otherwise
	AddIfAtLeast(ctx ctx.Ctx, participant domain.Address, delta, min int64) error
}

// Ledger is the escrow bookkeeping collaborator. Deposit/Withdraw are
// the caller-facing operations; Credit/Debit are engine-facing and a
// Debit that would drive a balance negative is a programming-invariant
// violation, never a recoverable condition.
type Ledger interface {
	Deposit(ctx ctx.Ctx, participant domain.Address, amount int64) (int64, error)
	Withdraw(ctx ctx.Ctx, participant domain.Address, amount int64) (int64, error)
	Balance(ctx ctx.Ctx, participant domain.Address) (int64, error)

	Credit(ctx ctx.Ctx, participant domain.Address, amount int64) error
	Debit(ctx ctx.Ctx, participant domain.Address, amount int64) error
}
