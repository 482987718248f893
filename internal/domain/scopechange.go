package domain

import "time"

// ChangeType classifies a scope change event.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	// ChangeRemoved exists in the model but is never produced by the
	// sync path: the remote API does not report ticket deletion.
	ChangeRemoved ChangeType = "removed"
)

// ImpactLevel buckets the magnitude of a scope change.
type ImpactLevel string

const (
	ImpactHigh   ImpactLevel = "high"
	ImpactMedium ImpactLevel = "medium"
	ImpactLow    ImpactLevel = "low"
)

// ScopeChangeEvent is an append-only audit record of a detected delta in
// a ticket's estimated effort. The date records when the local cache
// noticed the change, not when the remote side made it.
type ScopeChangeEvent struct {
	ID            string
	Date          time.Time
	ProjectID     int
	TicketID      int
	TicketSubject string
	ChangeType    ChangeType
	HoursDelta    float64
	OldHours      *float64
	NewHours      *float64
	Reason        string
}

// Impact classifies the event by absolute hours delta.
func (e *ScopeChangeEvent) Impact() ImpactLevel {
	delta := e.HoursDelta
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta >= 40:
		return ImpactHigh
	case delta >= 8:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// IsIncrease reports whether the event grew the project scope.
func (e *ScopeChangeEvent) IsIncrease() bool { return e.HoursDelta > 0 }

// IsDecrease reports whether the event shrank the project scope.
func (e *ScopeChangeEvent) IsDecrease() bool { return e.HoursDelta < 0 }
