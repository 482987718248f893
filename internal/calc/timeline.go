// Package calc turns persisted timelines into burndown analytics: the
// ideal, actual, dynamic-ideal and scope-trend lines, burn rate,
// velocity and the completion forecast.
package calc

import (
	"context"
	"errors"
	"time"

	"rdburn/internal/domain"
	"rdburn/internal/repository"
)

// TimelineBuilder assembles the read view the calculator operates on.
type TimelineBuilder struct {
	projects     repository.ProjectRepo
	snapshots    repository.SnapshotRepo
	scopeChanges repository.ScopeChangeRepo

	now func() time.Time
}

func NewTimelineBuilder(projects repository.ProjectRepo, snapshots repository.SnapshotRepo, scopeChanges repository.ScopeChangeRepo) *TimelineBuilder {
	return &TimelineBuilder{
		projects:     projects,
		snapshots:    snapshots,
		scopeChanges: scopeChanges,
		now:          time.Now,
	}
}

// Window narrows the timeline read view to a date range. A nil Start
// falls back to the project's resolved start, a nil End to today.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Build loads a project's timeline for the given window. A project that
// was never synced is an absence, not a failure: Build returns
// (nil, nil). Snapshots and scope changes outside the window are
// dropped; the timeline's StartDate is the window's lower bound.
func (b *TimelineBuilder) Build(ctx context.Context, projectID int, window Window) (*domain.ProjectTimeline, error) {
	project, err := b.projects.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snapshots, err := b.snapshots.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	events, err := b.scopeChanges.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	start := b.resolveStart(project, snapshots)
	if window.Start != nil {
		start = domain.DateOf(*window.Start)
	}
	end := domain.DateOf(b.now())
	if window.End != nil {
		end = domain.DateOf(*window.End)
	}

	tl := &domain.ProjectTimeline{
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		StartDate:    start,
		EndDate:      project.EndDate,
		Snapshots:    filterSnapshots(snapshots, start, end),
		ScopeChanges: filterEvents(events, start, end),
	}
	return tl, nil
}

func filterSnapshots(snapshots []domain.DailySnapshot, start, end time.Time) []domain.DailySnapshot {
	kept := make([]domain.DailySnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		day := domain.DateOf(s.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func filterEvents(events []domain.ScopeChangeEvent, start, end time.Time) []domain.ScopeChangeEvent {
	kept := make([]domain.ScopeChangeEvent, 0, len(events))
	for _, e := range events {
		day := domain.DateOf(e.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// resolveStart prefers the planned start, then the first snapshot day,
// then today for a freshly-registered project.
func (b *TimelineBuilder) resolveStart(project *domain.Project, snapshots []domain.DailySnapshot) time.Time {
	if project.StartDate != nil {
		return domain.DateOf(*project.StartDate)
	}
	if len(snapshots) > 0 {
		return domain.DateOf(snapshots[0].Date)
	}
	return domain.DateOf(b.now())
}
