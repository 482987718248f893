// Package sync keeps the local cache aligned with the remote tracker:
// full project syncs, incremental update fetches, scope change
// detection and daily snapshot rebuilds.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rdburn/internal/db"
	"rdburn/internal/domain"
	"rdburn/internal/repository"

	"github.com/rs/zerolog"
)

// defaultTrailingWindowDays bounds the snapshot rebuild after an
// incremental fetch with no usable watermark.
const defaultTrailingWindowDays = 7

// SyncError wraps a failure in one step of a sync run.
type SyncError struct {
	ProjectID int
	Op        string
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync project %d: %s: %v", e.ProjectID, e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// TicketSource is the remote side of a sync. The redmine client
// satisfies it; tests substitute a fake.
type TicketSource interface {
	FetchProject(ctx context.Context, projectID int) (*domain.Project, error)
	FetchVersions(ctx context.Context, projectID int) ([]domain.Version, error)
	FetchAllTickets(ctx context.Context, projectID int, includeClosed bool) ([]*domain.Ticket, error)
	FetchUpdatedTickets(ctx context.Context, projectID int, since *time.Time) ([]*domain.Ticket, error)
}

// Options tunes synchronizer behavior; zero values get sane defaults.
type Options struct {
	// CacheDir receives the versions JSON sidecar files. Empty disables
	// the sidecar cache.
	CacheDir string
	// TrailingWindowDays is the fallback rebuild window for incremental
	// fetches without a watermark.
	TrailingWindowDays int
	// RecordZeroEstimateAdded records "added" events for tickets that
	// arrive without an estimate.
	RecordZeroEstimateAdded bool
}

// SyncOptions controls a single full sync.
type SyncOptions struct {
	// IncludeClosed pulls closed tickets as well as open ones.
	IncludeClosed bool
}

// FetchOptions controls an incremental fetch.
type FetchOptions struct {
	// Since overrides the watermark derived from cached tickets.
	Since *time.Time
	// Full ignores the watermark and pulls every ticket's latest state.
	Full bool
}

// SyncResult summarizes a full sync run.
type SyncResult struct {
	ProjectID    int
	ProjectName  string
	Tickets      int
	SnapshotDays int
}

// FetchResult summarizes an incremental fetch.
type FetchResult struct {
	ProjectID    int
	Tickets      int
	ScopeChanges int
	SnapshotDays int
}

// ClearResult reports what a cache clear removed.
type ClearResult struct {
	Tickets      int
	Snapshots    int
	ScopeChanges int
}

// CacheStatus describes the cached state of one project.
type CacheStatus struct {
	ProjectID    int
	ProjectName  string
	Tickets      int
	Snapshots    int
	ScopeChanges int
	// LastUpdate is the newest remote update timestamp among cached
	// tickets, nil when the cache is empty.
	LastUpdate *time.Time
}

// Synchronizer orchestrates pulls from a TicketSource into the local
// store and keeps snapshots and the scope change log current.
type Synchronizer struct {
	source       TicketSource
	projects     repository.ProjectRepo
	tickets      repository.TicketRepo
	snapshots    repository.SnapshotRepo
	scopeChanges repository.ScopeChangeRepo
	uow          db.UnitOfWork
	detector     *ScopeChangeDetector
	builder      *SnapshotBuilder
	opts         Options
	log          zerolog.Logger

	now func() time.Time
}

// NewSynchronizer wires a synchronizer over the given source and store.
func NewSynchronizer(
	source TicketSource,
	projects repository.ProjectRepo,
	tickets repository.TicketRepo,
	snapshots repository.SnapshotRepo,
	scopeChanges repository.ScopeChangeRepo,
	uow db.UnitOfWork,
	opts Options,
	log zerolog.Logger,
) *Synchronizer {
	if opts.TrailingWindowDays <= 0 {
		opts.TrailingWindowDays = defaultTrailingWindowDays
	}
	return &Synchronizer{
		source:       source,
		projects:     projects,
		tickets:      tickets,
		snapshots:    snapshots,
		scopeChanges: scopeChanges,
		uow:          uow,
		detector:     NewScopeChangeDetector(tickets, opts.RecordZeroEstimateAdded),
		builder:      NewSnapshotBuilder(tickets, scopeChanges, uow, log),
		opts:         opts,
		log:          log,
		now:          time.Now,
	}
}

// SyncProject pulls the full remote state of a project: metadata,
// versions, every ticket, and a snapshot rebuild from the project start.
// Metadata is committed before ticket work so a later failure still
// leaves the project registered locally.
func (s *Synchronizer) SyncProject(ctx context.Context, projectID int, opts SyncOptions) (*SyncResult, error) {
	s.log.Info().Int("project_id", projectID).Bool("include_closed", opts.IncludeClosed).Msg("starting full sync")

	project, err := s.source.FetchProject(ctx, projectID)
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "fetch project", Err: err}
	}
	project.UpdatedAt = s.now().UTC()
	if err := s.projects.Upsert(ctx, project); err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "save project", Err: err}
	}

	versions, err := s.source.FetchVersions(ctx, projectID)
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "fetch versions", Err: err}
	}
	if err := s.saveVersionsCache(projectID, versions); err != nil {
		// The sidecar cache is advisory; a failed write never fails the sync.
		s.log.Warn().Err(err).Int("project_id", projectID).Msg("could not write versions cache")
	}

	tickets, err := s.source.FetchAllTickets(ctx, projectID, opts.IncludeClosed)
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "fetch tickets", Err: err}
	}
	if err := s.persistTickets(ctx, tickets); err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "save tickets", Err: err}
	}

	start, err := s.resolveStartDate(ctx, project)
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "resolve start date", Err: err}
	}
	days, err := s.builder.RebuildRange(ctx, projectID, start, domain.DateOf(s.now()))
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "rebuild snapshots", Err: err}
	}

	s.log.Info().
		Int("project_id", projectID).
		Int("tickets", len(tickets)).
		Int("snapshot_days", days).
		Msg("full sync complete")

	return &SyncResult{
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		Tickets:      len(tickets),
		SnapshotDays: days,
	}, nil
}

// FetchUpdates pulls only tickets updated since the last sync, records
// scope changes against the previously cached estimates, and rebuilds
// snapshots for the affected trailing window. A fetch that finds no
// updates leaves the store untouched.
func (s *Synchronizer) FetchUpdates(ctx context.Context, projectID int, opts FetchOptions) (*FetchResult, error) {
	since := opts.Since
	if since == nil && !opts.Full {
		watermark, err := s.tickets.MaxUpdatedOn(ctx, projectID)
		if err != nil {
			return nil, &SyncError{ProjectID: projectID, Op: "read watermark", Err: err}
		}
		since = watermark
	}

	updated, err := s.source.FetchUpdatedTickets(ctx, projectID, since)
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "fetch updates", Err: err}
	}
	if len(updated) == 0 {
		s.log.Debug().Int("project_id", projectID).Msg("no updated tickets")
		return &FetchResult{ProjectID: projectID}, nil
	}

	// Detect against the cached estimates before the upsert overwrites them.
	events, err := s.detector.Detect(ctx, projectID, updated, domain.DateOf(s.now()))
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "detect scope changes", Err: err}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTickets := repository.NewSQLiteTicketRepo(tx)
		for _, t := range updated {
			t.UpdatedAt = s.now().UTC()
			if err := txTickets.Upsert(ctx, t); err != nil {
				return err
			}
		}
		txEvents := repository.NewSQLiteScopeChangeRepo(tx)
		for _, e := range events {
			if err := txEvents.Create(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "save updates", Err: err}
	}

	start := s.rebuildWindowStart(since)
	days, err := s.builder.RebuildRange(ctx, projectID, start, domain.DateOf(s.now()))
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "rebuild snapshots", Err: err}
	}

	s.log.Info().
		Int("project_id", projectID).
		Int("tickets", len(updated)).
		Int("scope_changes", len(events)).
		Int("snapshot_days", days).
		Msg("incremental fetch complete")

	return &FetchResult{
		ProjectID:    projectID,
		Tickets:      len(updated),
		ScopeChanges: len(events),
		SnapshotDays: days,
	}, nil
}

// ClearProject removes every cached record of a project in one
// transaction, plus its versions sidecar file.
func (s *Synchronizer) ClearProject(ctx context.Context, projectID int) (*ClearResult, error) {
	result := &ClearResult{}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tickets := repository.NewSQLiteTicketRepo(tx)
		snapshots := repository.NewSQLiteSnapshotRepo(tx)
		events := repository.NewSQLiteScopeChangeRepo(tx)
		projects := repository.NewSQLiteProjectRepo(tx)

		var err error
		if result.Tickets, err = tickets.CountByProject(ctx, projectID); err != nil {
			return err
		}
		if result.Snapshots, err = snapshots.CountByProject(ctx, projectID); err != nil {
			return err
		}
		if result.ScopeChanges, err = events.CountByProject(ctx, projectID); err != nil {
			return err
		}

		if err := events.DeleteByProject(ctx, projectID); err != nil {
			return err
		}
		if err := snapshots.DeleteByProject(ctx, projectID); err != nil {
			return err
		}
		if err := tickets.DeleteByProject(ctx, projectID); err != nil {
			return err
		}
		return projects.Delete(ctx, projectID)
	})
	if err != nil {
		return nil, &SyncError{ProjectID: projectID, Op: "clear cache", Err: err}
	}

	if s.opts.CacheDir != "" {
		path := s.versionsCachePath(projectID)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", path).Msg("could not remove versions cache")
		}
	}

	s.log.Info().
		Int("project_id", projectID).
		Int("tickets", result.Tickets).
		Int("snapshots", result.Snapshots).
		Int("scope_changes", result.ScopeChanges).
		Msg("project cache cleared")
	return result, nil
}

// Status reports the cached footprint of one project.
// Returns repository.ErrNotFound when the project was never synced.
func (s *Synchronizer) Status(ctx context.Context, projectID int) (*CacheStatus, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	status := &CacheStatus{ProjectID: project.ID, ProjectName: project.Name}
	if status.Tickets, err = s.tickets.CountByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if status.Snapshots, err = s.snapshots.CountByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if status.ScopeChanges, err = s.scopeChanges.CountByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if status.LastUpdate, err = s.tickets.MaxUpdatedOn(ctx, projectID); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *Synchronizer) persistTickets(ctx context.Context, tickets []*domain.Ticket) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteTicketRepo(tx)
		now := s.now().UTC()
		for _, t := range tickets {
			t.UpdatedAt = now
			if err := repo.Upsert(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// resolveStartDate picks the snapshot range origin: the project's
// planned start when set, else the earliest ticket creation, else today.
func (s *Synchronizer) resolveStartDate(ctx context.Context, project *domain.Project) (time.Time, error) {
	if project.StartDate != nil {
		return domain.DateOf(*project.StartDate), nil
	}
	earliest, err := s.tickets.MinCreatedOn(ctx, project.ID)
	if err != nil {
		return time.Time{}, err
	}
	if earliest != nil {
		return domain.DateOf(*earliest), nil
	}
	return domain.DateOf(s.now()), nil
}

func (s *Synchronizer) rebuildWindowStart(since *time.Time) time.Time {
	if since != nil {
		return domain.DateOf(*since)
	}
	return domain.DateOf(s.now()).AddDate(0, 0, -s.opts.TrailingWindowDays)
}

type versionCacheEntry struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	DueDate string `json:"due_date,omitempty"`
}

func (s *Synchronizer) saveVersionsCache(projectID int, versions []domain.Version) error {
	if s.opts.CacheDir == "" {
		return nil
	}
	entries := make([]versionCacheEntry, 0, len(versions))
	for _, v := range versions {
		e := versionCacheEntry{ID: v.ID, Name: v.Name, Status: v.Status}
		if v.DueDate != nil {
			e.DueDate = v.DueDate.Format("2006-01-02")
		}
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.opts.CacheDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.versionsCachePath(projectID), data, 0o644)
}

func (s *Synchronizer) versionsCachePath(projectID int) string {
	return filepath.Join(s.opts.CacheDir, fmt.Sprintf("project_%d_versions.json", projectID))
}
