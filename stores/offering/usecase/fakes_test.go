package usecase

import (
	"sort"
	"sync"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/escrow"
	"github.com/x-xyz/launchpad/domain/offering"
)

// in-memory repositories backing the usecase tests, honoring the same
// error contracts as the mongo implementations

type fakeTxn struct{}

func (fakeTxn) RunWithTransaction(c ctx.Ctx, run func(ctx.Ctx) error) error {
	return run(c)
}

type memOfferingRepo struct {
	mu        sync.Mutex
	offerings map[offering.Id]*offering.Offering
}

func newMemOfferingRepo() *memOfferingRepo {
	return &memOfferingRepo{offerings: map[offering.Id]*offering.Offering{}}
}

func (r *memOfferingRepo) FindAll(c ctx.Ctx, opts ...offering.FindAllOptionsFunc) ([]*offering.Offering, error) {
	options, err := offering.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := []*offering.Offering{}
	for _, o := range r.offerings {
		if options.Seller != nil && !o.Seller.Equals(*options.Seller) {
			continue
		}
		if options.Kind != nil && o.Kind != *options.Kind {
			continue
		}
		if options.Status != nil && o.Status != *options.Status {
			continue
		}
		cp := *o
		res = append(res, &cp)
	}
	return res, nil
}

func (r *memOfferingRepo) Count(c ctx.Ctx, opts ...offering.FindAllOptionsFunc) (int, error) {
	res, err := r.FindAll(c, opts...)
	if err != nil {
		return 0, err
	}
	return len(res), nil
}

func (r *memOfferingRepo) FindOne(c ctx.Ctx, id offering.Id) (*offering.Offering, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.offerings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOfferingRepo) Create(c ctx.Ctx, o *offering.Offering) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offerings[o.ToId()]; ok {
		return domain.ErrOfferingAlreadyListed
	}
	cp := *o
	r.offerings[o.ToId()] = &cp
	return nil
}

func (r *memOfferingRepo) Update(c ctx.Ctx, id offering.Id, patchable offering.Patchable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.offerings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patchable.SupplyLeft != nil {
		o.SupplyLeft = *patchable.SupplyLeft
	}
	if patchable.Status != nil {
		o.Status = *patchable.Status
	}
	if patchable.NextProposalId != nil {
		o.NextProposalId = *patchable.NextProposalId
	}
	if patchable.PendingSettlements != nil {
		o.PendingSettlements = *patchable.PendingSettlements
	}
	return nil
}

func (r *memOfferingRepo) Remove(c ctx.Ctx, id offering.Id) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offerings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.offerings, id)
	return nil
}

type proposalKey struct {
	id         offering.Id
	proposalId int64
}

type memProposalRepo struct {
	mu        sync.Mutex
	proposals map[proposalKey]*offering.Proposal
}

func newMemProposalRepo() *memProposalRepo {
	return &memProposalRepo{proposals: map[proposalKey]*offering.Proposal{}}
}

func (r *memProposalRepo) matches(p *offering.Proposal, options offering.ProposalFindAllOptions) bool {
	if options.OfferingId != nil && p.Id != *options.OfferingId {
		return false
	}
	if options.Proposer != nil && !p.Proposer.Equals(*options.Proposer) {
		return false
	}
	if options.Acceptable != nil && p.Acceptable != *options.Acceptable {
		return false
	}
	return true
}

func (r *memProposalRepo) FindAll(c ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) ([]*offering.Proposal, error) {
	options, err := offering.GetProposalFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := []*offering.Proposal{}
	for _, p := range r.proposals {
		if r.matches(p, options) {
			cp := *p
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ProposalId < res[j].ProposalId })
	return res, nil
}

func (r *memProposalRepo) Count(c ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) (int, error) {
	res, err := r.FindAll(c, opts...)
	if err != nil {
		return 0, err
	}
	return len(res), nil
}

func (r *memProposalRepo) FindOne(c ctx.Ctx, id offering.Id, proposalId int64) (*offering.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proposals[proposalKey{id, proposalId}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProposalRepo) Create(c ctx.Ctx, p *offering.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := proposalKey{p.Id, p.ProposalId}
	if _, ok := r.proposals[key]; ok {
		return domain.ErrConflict
	}
	cp := *p
	r.proposals[key] = &cp
	return nil
}

func (r *memProposalRepo) Update(c ctx.Ctx, id offering.Id, proposalId int64, patchable offering.ProposalPatchable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proposals[proposalKey{id, proposalId}]
	if !ok {
		return domain.ErrNotFound
	}
	if patchable.Price != nil {
		p.Price = *patchable.Price
	}
	if patchable.Deposit != nil {
		p.Deposit = *patchable.Deposit
	}
	if patchable.Acceptable != nil {
		p.Acceptable = *patchable.Acceptable
	}
	return nil
}

func (r *memProposalRepo) Remove(c ctx.Ctx, id offering.Id, proposalId int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := proposalKey{id, proposalId}
	if _, ok := r.proposals[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.proposals, key)
	return nil
}

func (r *memProposalRepo) RemoveAll(c ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) error {
	options, err := offering.GetProposalFindAllOptions(opts...)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, p := range r.proposals {
		if r.matches(p, options) {
			delete(r.proposals, key)
		}
	}
	return nil
}

type memSetRepo struct {
	mu   sync.Mutex
	sets map[offering.Id][]int64
}

func newMemSetRepo() *memSetRepo {
	return &memSetRepo{sets: map[offering.Id][]int64{}}
}

func (r *memSetRepo) FindOne(c ctx.Ctx, id offering.Id) (*offering.AcceptableSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, ok := r.sets[id]
	if !ok {
		return &offering.AcceptableSet{Id: id, ProposalIds: []int64{}}, nil
	}
	cp := make([]int64, len(ids))
	copy(cp, ids)
	return &offering.AcceptableSet{Id: id, ProposalIds: cp}, nil
}

func (r *memSetRepo) Save(c ctx.Ctx, set *offering.AcceptableSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]int64, len(set.ProposalIds))
	copy(cp, set.ProposalIds)
	r.sets[set.Id] = cp
	return nil
}

func (r *memSetRepo) Remove(c ctx.Ctx, id offering.Id) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sets, id)
	return nil
}

type memEscrowRepo struct {
	mu       sync.Mutex
	balances map[domain.Address]int64
}

func newMemEscrowRepo() *memEscrowRepo {
	return &memEscrowRepo{balances: map[domain.Address]int64{}}
}

func (r *memEscrowRepo) FindOne(c ctx.Ctx, participant domain.Address) (*escrow.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[participant.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &escrow.Account{Participant: participant.ToLower(), Balance: balance}, nil
}

func (r *memEscrowRepo) Add(c ctx.Ctx, participant domain.Address, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.balances[participant.ToLower()] += delta
	return r.balances[participant.ToLower()], nil
}

func (r *memEscrowRepo) AddIfAtLeast(c ctx.Ctx, participant domain.Address, delta, min int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.balances[participant.ToLower()] < min {
		return domain.ErrInsufficientBalance
	}
	r.balances[participant.ToLower()] += delta
	return nil
}
