package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/escrow"
)

type memRepo struct {
	accounts map[domain.Address]int64
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: map[domain.Address]int64{}}
}

func (r *memRepo) FindOne(c ctx.Ctx, participant domain.Address) (*escrow.Account, error) {
	balance, ok := r.accounts[participant]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &escrow.Account{Participant: participant, Balance: balance, UpdatedAt: time.Now()}, nil
}

func (r *memRepo) Add(c ctx.Ctx, participant domain.Address, delta int64) (int64, error) {
	r.accounts[participant] += delta
	return r.accounts[participant], nil
}

func (r *memRepo) AddIfAtLeast(c ctx.Ctx, participant domain.Address, delta, min int64) error {
	if r.accounts[participant] < min {
		return domain.ErrInsufficientBalance
	}
	r.accounts[participant] += delta
	return nil
}

type escrowSuite struct {
	suite.Suite
	ctx    ctx.Ctx
	repo   *memRepo
	ledger escrow.Ledger
}

func (s *escrowSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.repo = newMemRepo()
	s.ledger = New(s.repo)
}

func (s *escrowSuite) TestDeposit() {
	balance, err := s.ledger.Deposit(s.ctx, "0xabc", 100)
	s.NoError(err)
	s.Equal(int64(100), balance)

	balance, err = s.ledger.Deposit(s.ctx, "0xabc", 50)
	s.NoError(err)
	s.Equal(int64(150), balance)

	_, err = s.ledger.Deposit(s.ctx, "0xabc", 0)
	s.ErrorIs(err, domain.ErrBadParamInput)

	_, err = s.ledger.Deposit(s.ctx, "0xabc", -1)
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *escrowSuite) TestWithdraw() {
	_, err := s.ledger.Deposit(s.ctx, "0xabc", 100)
	s.Require().NoError(err)

	balance, err := s.ledger.Withdraw(s.ctx, "0xabc", 30)
	s.NoError(err)
	s.Equal(int64(70), balance)

	_, err = s.ledger.Withdraw(s.ctx, "0xabc", 71)
	s.ErrorIs(err, domain.ErrInsufficientBalance)

	// an unfunded participant cannot withdraw either
	_, err = s.ledger.Withdraw(s.ctx, "0xnew", 1)
	s.ErrorIs(err, domain.ErrInsufficientBalance)

	_, err = s.ledger.Withdraw(s.ctx, "0xabc", 0)
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *escrowSuite) TestBalance() {
	// missing account reads as zero
	balance, err := s.ledger.Balance(s.ctx, "0xnew")
	s.NoError(err)
	s.Equal(int64(0), balance)

	_, err = s.ledger.Deposit(s.ctx, "0xabc", 42)
	s.Require().NoError(err)

	balance, err = s.ledger.Balance(s.ctx, "0xabc")
	s.NoError(err)
	s.Equal(int64(42), balance)
}

func (s *escrowSuite) TestCredit() {
	s.NoError(s.ledger.Credit(s.ctx, "0xabc", 100))

	balance, err := s.ledger.Balance(s.ctx, "0xabc")
	s.NoError(err)
	s.Equal(int64(100), balance)

	// zero credit is a no-op
	s.NoError(s.ledger.Credit(s.ctx, "0xabc", 0))

	s.Panics(func() { s.ledger.Credit(s.ctx, "0xabc", -1) })
}

func (s *escrowSuite) TestDebit() {
	s.Require().NoError(s.ledger.Credit(s.ctx, "0xabc", 100))

	s.NoError(s.ledger.Debit(s.ctx, "0xabc", 60))

	balance, err := s.ledger.Balance(s.ctx, "0xabc")
	s.NoError(err)
	s.Equal(int64(40), balance)

	s.NoError(s.ledger.Debit(s.ctx, "0xabc", 0))

	s.Panics(func() { s.ledger.Debit(s.ctx, "0xabc", -1) })

	// overdraft is an accounting bug, not caller error
	s.Panics(func() { s.ledger.Debit(s.ctx, "0xabc", 41) })
}

func TestEscrowSuite(t *testing.T) {
	suite.Run(t, new(escrowSuite))
}
