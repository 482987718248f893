package domain

import "time"

// Ticket is the locally cached subset of a remote tracker issue.
// EstimatedHours is nil when the ticket has not been estimated yet;
// a nil estimate contributes 0 to workload totals but remains
// distinguishable from an explicit 0.
type Ticket struct {
	ID             int
	ProjectID      int
	Subject        string
	EstimatedHours *float64
	StatusID       int
	StatusName     string
	CreatedOn      time.Time
	UpdatedOn      time.Time
	// CompletedOn is derived at conversion time: equal to UpdatedOn when
	// the status is in the configured completed set, nil otherwise.
	CompletedOn    *time.Time
	AssignedToID   *int
	AssignedToName string
	VersionID      *int
	VersionName    string
	CustomFields   map[string]string
	// UpdatedAt is the local cache write time.
	UpdatedAt time.Time
}

// EstimatedHoursOrZero returns the estimate with nil normalized to 0.
func (t *Ticket) EstimatedHoursOrZero() float64 {
	if t.EstimatedHours == nil {
		return 0
	}
	return *t.EstimatedHours
}

// CompletedAsOf reports whether the ticket counted as completed at the
// end of the given calendar day.
func (t *Ticket) CompletedAsOf(day time.Time) bool {
	if t.CompletedOn == nil {
		return false
	}
	return !DateOf(*t.CompletedOn).After(DateOf(day))
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
