package sync

import (
	"context"
	"errors"
	"math"
	"time"

	"rdburn/internal/domain"
	"rdburn/internal/repository"
)

// estimateEpsilon ignores float noise when comparing estimates.
const estimateEpsilon = 0.01

// ScopeChangeDetector compares incoming tickets against the cached
// state and emits scope change events. It must run before the incoming
// batch is persisted, otherwise the old estimates are already gone.
type ScopeChangeDetector struct {
	tickets                 repository.TicketRepo
	recordZeroEstimateAdded bool
}

func NewScopeChangeDetector(tickets repository.TicketRepo, recordZeroEstimateAdded bool) *ScopeChangeDetector {
	return &ScopeChangeDetector{
		tickets:                 tickets,
		recordZeroEstimateAdded: recordZeroEstimateAdded,
	}
}

// Detect returns the scope change events implied by the incoming batch.
// Events are dated with the given detection day, not the remote update
// time: the cache can only vouch for when it noticed.
func (d *ScopeChangeDetector) Detect(ctx context.Context, projectID int, incoming []*domain.Ticket, today time.Time) ([]*domain.ScopeChangeEvent, error) {
	day := domain.DateOf(today)
	var events []*domain.ScopeChangeEvent

	for _, t := range incoming {
		prior, err := d.tickets.GetByID(ctx, t.ID)
		if errors.Is(err, repository.ErrNotFound) {
			if e := d.addedEvent(projectID, t, day); e != nil {
				events = append(events, e)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if e := d.modifiedEvent(projectID, prior, t, day); e != nil {
			events = append(events, e)
		}
	}
	return events, nil
}

func (d *ScopeChangeDetector) addedEvent(projectID int, t *domain.Ticket, day time.Time) *domain.ScopeChangeEvent {
	hours := t.EstimatedHoursOrZero()
	if hours == 0 && !d.recordZeroEstimateAdded {
		// Unestimated tickets carry no scope until someone estimates them.
		return nil
	}
	return &domain.ScopeChangeEvent{
		Date:          day,
		ProjectID:     projectID,
		TicketID:      t.ID,
		TicketSubject: t.Subject,
		ChangeType:    domain.ChangeAdded,
		HoursDelta:    hours,
		NewHours:      t.EstimatedHours,
		Reason:        "new ticket added",
	}
}

func (d *ScopeChangeDetector) modifiedEvent(projectID int, prior, t *domain.Ticket, day time.Time) *domain.ScopeChangeEvent {
	oldHours := prior.EstimatedHoursOrZero()
	newHours := t.EstimatedHoursOrZero()
	if math.Abs(newHours-oldHours) <= estimateEpsilon {
		return nil
	}
	return &domain.ScopeChangeEvent{
		Date:          day,
		ProjectID:     projectID,
		TicketID:      t.ID,
		TicketSubject: t.Subject,
		ChangeType:    domain.ChangeModified,
		HoursDelta:    newHours - oldHours,
		OldHours:      prior.EstimatedHours,
		NewHours:      t.EstimatedHours,
		Reason:        "estimated hours changed",
	}
}
