// Package cli wires the cobra command tree over the sync and calc
// layers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"rdburn/internal/calc"
	"rdburn/internal/domain"
	"rdburn/internal/repository"
	"rdburn/internal/sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ConnectionTester verifies tracker connectivity and credentials.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

// App holds the wired dependencies CLI commands run against.
type App struct {
	Sync         *sync.Synchronizer
	Timelines    *calc.TimelineBuilder
	Calc         *calc.Calculator
	Projects     repository.ProjectRepo
	ScopeChanges repository.ScopeChangeRepo
	Source       ConnectionTester
	// DefaultWindow is the trailing snapshot window for metrics commands.
	DefaultWindow int
	Log           zerolog.Logger
}

// NewRootCmd creates the top-level "rdburn" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "rdburn",
		Short:         "Burndown tracking for Redmine-compatible trackers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newProjectCmd(app),
		newDataCmd(app),
		newMetricsCmd(app),
	)

	return root
}

// resolveProject accepts a numeric project ID or an identifier and
// returns the cached project.
func resolveProject(ctx context.Context, app *App, input string) (*domain.Project, error) {
	var (
		project *domain.Project
		err     error
	)
	if id, convErr := strconv.Atoi(input); convErr == nil {
		project, err = app.Projects.GetByID(ctx, id)
	} else {
		project, err = app.Projects.GetByIdentifier(ctx, input)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("project %q is not cached; run 'rdburn project sync <id>' first", input)
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// buildTimeline loads the project's timeline for the given window,
// treating an absent project as a user-facing error.
func buildTimeline(ctx context.Context, app *App, input string, window calc.Window) (*domain.ProjectTimeline, error) {
	project, err := resolveProject(ctx, app, input)
	if err != nil {
		return nil, err
	}
	tl, err := app.Timelines.Build(ctx, project.ID, window)
	if err != nil {
		return nil, err
	}
	if tl == nil {
		return nil, fmt.Errorf("project %q is not cached; run 'rdburn project sync <id>' first", input)
	}
	return tl, nil
}
