package sync

import (
	"context"
	"time"

	"rdburn/internal/db"
	"rdburn/internal/domain"
	"rdburn/internal/repository"

	"github.com/rs/zerolog"
)

// SnapshotBuilder reconstructs per-day workload snapshots from the
// cached tickets and scope change log. Rebuilds are idempotent: each
// day is recomputed from scratch and upserted.
type SnapshotBuilder struct {
	tickets      repository.TicketRepo
	scopeChanges repository.ScopeChangeRepo
	uow          db.UnitOfWork
	log          zerolog.Logger
}

func NewSnapshotBuilder(tickets repository.TicketRepo, scopeChanges repository.ScopeChangeRepo, uow db.UnitOfWork, log zerolog.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{tickets: tickets, scopeChanges: scopeChanges, uow: uow, log: log}
}

// RebuildRange recomputes one snapshot per calendar day from start to
// end inclusive and writes them in a single transaction. Returns the
// number of days written; an inverted range writes nothing.
func (b *SnapshotBuilder) RebuildRange(ctx context.Context, projectID int, start, end time.Time) (int, error) {
	start = domain.DateOf(start)
	end = domain.DateOf(end)
	if start.After(end) {
		return 0, nil
	}

	// Tickets created after the range end can never appear in it.
	tickets, err := b.tickets.ListCreatedOnOrBefore(ctx, projectID, end)
	if err != nil {
		return 0, err
	}
	events, err := b.scopeChanges.ListByProject(ctx, projectID)
	if err != nil {
		return 0, err
	}
	eventsByDay := groupEventsByDay(events)

	days := 0
	err = b.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteSnapshotRepo(tx)
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			snapshot := buildSnapshot(projectID, day, tickets, eventsByDay[day])
			if err := repo.Upsert(ctx, snapshot); err != nil {
				return err
			}
			days++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	b.log.Debug().
		Int("project_id", projectID).
		Str("from", start.Format("2006-01-02")).
		Str("to", end.Format("2006-01-02")).
		Int("days", days).
		Msg("snapshots rebuilt")
	return days, nil
}

// buildSnapshot derives one day's state. Only tickets created on or
// before the day exist from its point of view.
func buildSnapshot(projectID int, day time.Time, tickets []*domain.Ticket, dayEvents []domain.ScopeChangeEvent) *domain.DailySnapshot {
	s := &domain.DailySnapshot{Date: day, ProjectID: projectID}

	for _, t := range tickets {
		createdDay := domain.DateOf(t.CreatedOn)
		if createdDay.After(day) {
			continue
		}
		hours := t.EstimatedHoursOrZero()
		s.TotalEstimatedHours += hours
		if createdDay.Equal(day) {
			s.NewTicketsHours += hours
		}
		if t.CompletedAsOf(day) {
			s.CompletedHours += hours
			s.CompletedTicketCount++
		} else {
			s.ActiveTicketCount++
		}
	}
	s.RemainingHours = s.TotalEstimatedHours - s.CompletedHours

	for _, e := range dayEvents {
		switch e.ChangeType {
		case domain.ChangeModified:
			s.ChangedHours += e.HoursDelta
		case domain.ChangeRemoved:
			s.DeletedHours += -e.HoursDelta
		}
	}
	return s
}

func groupEventsByDay(events []domain.ScopeChangeEvent) map[time.Time][]domain.ScopeChangeEvent {
	byDay := make(map[time.Time][]domain.ScopeChangeEvent, len(events))
	for _, e := range events {
		day := domain.DateOf(e.Date)
		byDay[day] = append(byDay[day], e)
	}
	return byDay
}
