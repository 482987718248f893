package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeline_SnapshotOn(t *testing.T) {
	tl := ProjectTimeline{
		Snapshots: []DailySnapshot{
			{Date: day(2024, 1, 1), RemainingHours: 100},
			{Date: day(2024, 1, 15), RemainingHours: 75},
		},
	}

	s := tl.SnapshotOn(day(2024, 1, 15))
	require.NotNil(t, s)
	assert.Equal(t, 75.0, s.RemainingHours)

	assert.Nil(t, tl.SnapshotOn(day(2024, 1, 10)))
}

func TestTimeline_TotalScopeChange(t *testing.T) {
	tl := ProjectTimeline{
		ScopeChanges: []ScopeChangeEvent{
			{ChangeType: ChangeAdded, HoursDelta: 8},
			{ChangeType: ChangeRemoved, HoursDelta: -4},
		},
	}
	assert.Equal(t, 4.0, tl.TotalScopeChange())
}

func TestTimeline_ScopeChangesOn(t *testing.T) {
	tl := ProjectTimeline{
		ScopeChanges: []ScopeChangeEvent{
			{Date: day(2024, 1, 10), HoursDelta: 5},
			{Date: day(2024, 1, 10), HoursDelta: -2},
			{Date: day(2024, 1, 12), HoursDelta: 3},
		},
	}
	assert.Len(t, tl.ScopeChangesOn(day(2024, 1, 10)), 2)
	assert.Empty(t, tl.ScopeChangesOn(day(2024, 1, 11)))
}

func TestTimeline_Latest(t *testing.T) {
	empty := ProjectTimeline{}
	assert.Nil(t, empty.Latest())

	tl := ProjectTimeline{Snapshots: []DailySnapshot{
		{Date: day(2024, 1, 1)},
		{Date: day(2024, 1, 2), RemainingHours: 9},
	}}
	require.NotNil(t, tl.Latest())
	assert.Equal(t, 9.0, tl.Latest().RemainingHours)
}
