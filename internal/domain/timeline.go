package domain

import "time"

// ProjectTimeline is the read view consumed by the burndown calculator:
// a project's snapshots and scope change events over a date window, both
// ordered by date. It is assembled on demand and never persisted.
type ProjectTimeline struct {
	ProjectID    int
	ProjectName  string
	StartDate    time.Time
	EndDate      *time.Time
	Snapshots    []DailySnapshot
	ScopeChanges []ScopeChangeEvent
}

// SnapshotOn returns the snapshot for the given day, or nil if none is
// stored for that exact date.
func (tl *ProjectTimeline) SnapshotOn(day time.Time) *DailySnapshot {
	day = DateOf(day)
	for i := range tl.Snapshots {
		if tl.Snapshots[i].Date.Equal(day) {
			return &tl.Snapshots[i]
		}
	}
	return nil
}

// ScopeChangesOn returns all events recorded on the given day.
func (tl *ProjectTimeline) ScopeChangesOn(day time.Time) []ScopeChangeEvent {
	day = DateOf(day)
	var out []ScopeChangeEvent
	for _, c := range tl.ScopeChanges {
		if c.Date.Equal(day) {
			out = append(out, c)
		}
	}
	return out
}

// TotalScopeChange sums the signed hour deltas of every event in the
// window.
func (tl *ProjectTimeline) TotalScopeChange() float64 {
	var total float64
	for _, c := range tl.ScopeChanges {
		total += c.HoursDelta
	}
	return total
}

// Latest returns the most recent snapshot, or nil when the timeline has
// none.
func (tl *ProjectTimeline) Latest() *DailySnapshot {
	if len(tl.Snapshots) == 0 {
		return nil
	}
	return &tl.Snapshots[len(tl.Snapshots)-1]
}
