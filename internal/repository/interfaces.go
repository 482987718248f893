package repository

import (
	"context"
	"errors"
	"time"

	"rdburn/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. Timeline
// retrieval maps it to an absence rather than a failure.
var ErrNotFound = errors.New("record not found")

type ProjectRepo interface {
	Upsert(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int) (*domain.Project, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Delete(ctx context.Context, id int) error
}

type TicketRepo interface {
	Upsert(ctx context.Context, t *domain.Ticket) error
	GetByID(ctx context.Context, id int) (*domain.Ticket, error)
	ListByProject(ctx context.Context, projectID int) ([]*domain.Ticket, error)
	// ListCreatedOnOrBefore returns the tickets whose remote creation date
	// falls on or before the given calendar day. Feeds snapshot rebuilds.
	ListCreatedOnOrBefore(ctx context.Context, projectID int, day time.Time) ([]*domain.Ticket, error)
	// MaxUpdatedOn returns the incremental-sync watermark: the latest
	// remote update timestamp across the project's cached tickets, or nil
	// when no tickets are cached.
	MaxUpdatedOn(ctx context.Context, projectID int) (*time.Time, error)
	// MinCreatedOn returns the earliest remote creation timestamp, used to
	// infer a start date for projects without one.
	MinCreatedOn(ctx context.Context, projectID int) (*time.Time, error)
	CountByProject(ctx context.Context, projectID int) (int, error)
	DeleteByProject(ctx context.Context, projectID int) error
}

type SnapshotRepo interface {
	Upsert(ctx context.Context, s *domain.DailySnapshot) error
	GetByDate(ctx context.Context, projectID int, day time.Time) (*domain.DailySnapshot, error)
	ListByProject(ctx context.Context, projectID int) ([]domain.DailySnapshot, error)
	CountByProject(ctx context.Context, projectID int) (int, error)
	DeleteByProject(ctx context.Context, projectID int) error
}

type ScopeChangeRepo interface {
	Create(ctx context.Context, e *domain.ScopeChangeEvent) error
	ListByProject(ctx context.Context, projectID int) ([]domain.ScopeChangeEvent, error)
	CountByProject(ctx context.Context, projectID int) (int, error)
	DeleteByProject(ctx context.Context, projectID int) error
}
