package offering

import (
	"sort"

	"github.com/x-xyz/launchpad/base/ctx"
)

// AcceptableSet holds the proposal ids currently winning an offering's
// remaining supply, ordered worst-first by the marketplace total order.
// Its length never exceeds SupplyLeft outside a single mutating call.
type AcceptableSet struct {
	Id          `bson:"inline"`
	ProposalIds []int64 `json:"proposalIds" bson:"proposalIds"`
}

func (s *AcceptableSet) Len() int {
	return len(s.ProposalIds)
}

func (s *AcceptableSet) Contains(proposalId int64) bool {
	for _, pid := range s.ProposalIds {
		if pid == proposalId {
			return true
		}
	}
	return false
}

// Remove drops proposalId from the set, preserving order. It reports
// whether the id was present.
func (s *AcceptableSet) Remove(proposalId int64) bool {
	for i, pid := range s.ProposalIds {
		if pid == proposalId {
			s.ProposalIds = append(s.ProposalIds[:i], s.ProposalIds[i+1:]...)
			return true
		}
	}
	return false
}

// Worst returns the id at index 0, the current worst standing proposal.
func (s *AcceptableSet) Worst() (int64, bool) {
	if len(s.ProposalIds) == 0 {
		return 0, false
	}
	return s.ProposalIds[0], true
}

// Less reports whether a ranks strictly below b: lower price first, and
// at equal price the later proposal (higher id) ranks below the earlier
// one, so first movers keep priority.
func Less(a, b *Proposal) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.ProposalId > b.ProposalId
}

// Rank sorts standing proposals worst-first by the total order and
// returns their ids. The sort is stable so id tie-breaking, not
// insertion order, decides equal-price ranking.
func Rank(proposals []*Proposal) []int64 {
	sorted := make([]*Proposal, len(proposals))
	copy(sorted, proposals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(sorted[i], sorted[j])
	})
	ids := make([]int64, len(sorted))
	for i, p := range sorted {
		ids[i] = p.ProposalId
	}
	return ids
}

// Floor returns the minimum price a new proposal must reach. While
// unmatched supply remains the floor is the offering's minimum proposal
// price; once the set is full a newcomer must beat the worst standing
// proposal by at least one price step.
func Floor(o *Offering, standing []*Proposal) int64 {
	if !o.ProposalsEnabled() {
		return 0
	}
	if int64(len(standing)) < o.SupplyLeft {
		return *o.MinProposalPrice
	}
	worst := standing[0]
	for _, p := range standing[1:] {
		if Less(p, worst) {
			worst = p
		}
	}
	return worst.Price + o.PriceStep
}

// AcceptableSetRepo persists one ordered id sequence per offering.
type AcceptableSetRepo interface {
	// FindOne returns an empty set when none has been stored yet
	FindOne(ctx ctx.Ctx, id Id) (*AcceptableSet, error)
	Save(ctx ctx.Ctx, set *AcceptableSet) error
	Remove(ctx ctx.Ctx, id Id) error
}
