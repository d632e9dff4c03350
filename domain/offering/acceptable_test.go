package offering

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x-xyz/launchpad/base/ptr"
)

func prop(id, price int64) *Proposal {
	return &Proposal{ProposalId: id, Price: price}
}

func TestRank(t *testing.T) {
	req := require.New(t)

	cases := []struct {
		name      string
		proposals []*Proposal
		want      []int64
	}{
		{
			name:      "distinct prices sort ascending",
			proposals: []*Proposal{prop(1, 500), prop(2, 900), prop(3, 700)},
			want:      []int64{1, 3, 2},
		},
		{
			name:      "equal prices rank earlier id better",
			proposals: []*Proposal{prop(1, 700), prop(2, 700), prop(3, 700)},
			want:      []int64{3, 2, 1},
		},
		{
			name:      "mixed ties",
			proposals: []*Proposal{prop(4, 750), prop(2, 900), prop(5, 750)},
			want:      []int64{5, 4, 2},
		},
		{
			name:      "empty",
			proposals: nil,
			want:      []int64{},
		},
	}

	for _, c := range cases {
		req.Equal(c.want, Rank(c.proposals), c.name)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	req := require.New(t)

	ps := []*Proposal{prop(2, 900), prop(1, 500)}
	Rank(ps)
	req.Equal(int64(2), ps[0].ProposalId)
}

func TestFloor(t *testing.T) {
	req := require.New(t)

	o := &Offering{
		SupplyLeft:       2,
		BuyNowPrice:      1000,
		MinProposalPrice: ptr.Int64(500),
		PriceStep:        10,
	}

	// unmatched supply reopens the minimum price
	req.Equal(int64(500), Floor(o, nil))
	req.Equal(int64(500), Floor(o, []*Proposal{prop(1, 700)}))

	// full set: must beat the worst standing proposal by one step
	req.Equal(int64(710), Floor(o, []*Proposal{prop(3, 700), prop(2, 900)}))

	// at equal prices the later proposal is the worst
	req.Equal(int64(710), Floor(o, []*Proposal{prop(2, 700), prop(3, 700)}))
}

func TestAcceptableSetRemove(t *testing.T) {
	req := require.New(t)

	s := &AcceptableSet{ProposalIds: []int64{1, 3, 2}}
	req.True(s.Remove(3))
	req.Equal([]int64{1, 2}, s.ProposalIds)
	req.False(s.Remove(3))

	worst, ok := s.Worst()
	req.True(ok)
	req.Equal(int64(1), worst)
	req.True(s.Contains(2))
	req.False(s.Contains(3))
}
