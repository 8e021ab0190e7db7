package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_FindIdle(t *testing.T) {
	testCases := []struct {
		name         string
		size         int
		coordinator  bool
		busy         []int
		lastAssigned int
		expect       int
		found        bool
	}{
		{name: "all idle starts after last", size: 4, lastAssigned: 1, expect: 2, found: true},
		{name: "last is P-1 wraps to first worker", size: 4, lastAssigned: 3, expect: 1, found: true},
		{name: "last is P-1 wraps to coordinator", size: 4, coordinator: true, lastAssigned: 3, expect: 0, found: true},
		{name: "last is 0 without coordinator", size: 4, lastAssigned: 0, expect: 1, found: true},
		{name: "last is 0 with coordinator", size: 4, coordinator: true, lastAssigned: 0, expect: 1, found: true},
		{name: "skips busy ranks", size: 5, busy: []int{2, 3}, lastAssigned: 1, expect: 4, found: true},
		{name: "wraps past busy ranks", size: 5, busy: []int{3, 4, 1}, lastAssigned: 2, expect: 2, found: true},
		{name: "last assigned is final candidate", size: 4, busy: []int{1, 3}, lastAssigned: 2, expect: 2, found: true},
		{name: "all busy", size: 4, busy: []int{1, 2, 3}, lastAssigned: 2},
		{name: "all busy with coordinator", size: 3, coordinator: true, busy: []int{0, 1, 2}, lastAssigned: 0},
		{name: "pool of one without coordinator", size: 1, lastAssigned: 0},
		{name: "pool of one with coordinator", size: 1, coordinator: true, lastAssigned: 0, expect: 0, found: true},
		{name: "out of range last restarts scan", size: 3, lastAssigned: 9, expect: 1, found: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := New(tc.size, tc.coordinator)
			for _, rank := range tc.busy {
				require.NoError(t, tracker.MarkBusy(rank))
			}
			rank, ok := tracker.FindIdle(tc.lastAssigned)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.expect, rank)
			}
		})
	}
}

func TestTracker_RoundRobin(t *testing.T) {
	for _, coordinator := range []bool{false, true} {
		for size := 2; size <= 6; size++ {
			tracker := New(size, coordinator)
			last := size - 1
			var order []int
			for {
				rank, ok := tracker.FindIdle(last)
				if !ok {
					break
				}
				require.NoError(t, tracker.MarkBusy(rank))
				order = append(order, rank)
				last = rank
			}
			eligible := size - 1
			if coordinator {
				eligible = size
			}
			assert.Len(t, order, eligible)
			assert.Equal(t, eligible, tracker.BusyCount())
			seen := map[int]bool{}
			for _, rank := range order {
				assert.False(t, seen[rank], "rank %d selected twice while others idle", rank)
				seen[rank] = true
			}
		}
	}
}

func TestTracker_Transitions(t *testing.T) {
	tracker := New(3, false)
	assert.Error(t, tracker.MarkBusy(0))
	assert.Error(t, tracker.MarkIdle(1))
	assert.NoError(t, tracker.MarkBusy(1))
	assert.Error(t, tracker.MarkBusy(1))
	assert.Equal(t, Busy, tracker.State(1))
	assert.NoError(t, tracker.MarkIdle(1))
	assert.Equal(t, Idle, tracker.State(1))
	assert.Equal(t, 0, tracker.BusyCount())
	assert.False(t, tracker.Eligible(3))
}
