package offering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	req := require.New(t)

	now := time.Now()
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	cases := []struct {
		name     string
		offering Offering
		at       time.Time
		want     Status
	}{
		{
			name:     "no schedule starts immediately",
			offering: Offering{Status: StatusUnstarted, SupplyLeft: 3},
			at:       now,
			want:     StatusRunning,
		},
		{
			name:     "before start time stays unstarted",
			offering: Offering{Status: StatusUnstarted, SupplyLeft: 3, StartTime: &after},
			at:       now,
			want:     StatusUnstarted,
		},
		{
			name:     "start time passed",
			offering: Offering{Status: StatusUnstarted, SupplyLeft: 3, StartTime: &before},
			at:       now,
			want:     StatusRunning,
		},
		{
			name:     "end time passed",
			offering: Offering{Status: StatusRunning, SupplyLeft: 3, EndTime: &before},
			at:       now,
			want:     StatusEnded,
		},
		{
			name:     "supply exhausted ends the offering",
			offering: Offering{Status: StatusRunning, SupplyLeft: 0},
			at:       now,
			want:     StatusEnded,
		},
		{
			name:     "pending settlement keeps an exhausted offering open",
			offering: Offering{Status: StatusRunning, SupplyLeft: 0, PendingSettlements: 1},
			at:       now,
			want:     StatusRunning,
		},
		{
			name:     "running does not revert on a regressed clock",
			offering: Offering{Status: StatusRunning, SupplyLeft: 3, StartTime: &after},
			at:       now,
			want:     StatusRunning,
		},
	}

	for _, c := range cases {
		req.Equal(c.want, NextStatus(&c.offering, c.at), c.name)
	}
}

func TestNextStatusEndedIsRatchet(t *testing.T) {
	req := require.New(t)

	now := time.Now()
	o := &Offering{Status: StatusEnded, SupplyLeft: 3}

	// no later clock reading, however small, reopens a terminal offering
	for _, at := range []time.Time{now, now.Add(-24 * time.Hour), {}} {
		req.Equal(StatusEnded, NextStatus(o, at))
	}
}
