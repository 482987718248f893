package cli

import (
	"fmt"
	"strconv"

	"rdburn/internal/calc"
	"rdburn/internal/cli/formatter"
	"rdburn/internal/sync"

	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage tracked projects",
	}

	cmd.AddCommand(
		newProjectListCmd(app),
		newProjectInfoCmd(app),
		newProjectSyncCmd(app),
		newProjectChangesCmd(app),
	)

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects cached. Run 'rdburn project sync <id>' first.")
				return nil
			}
			fmt.Print(formatter.FormatProjectList(projects))
			return nil
		},
	}
}

func newProjectInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info <project>",
		Short: "Show a project's cached state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			status, err := app.Sync.Status(ctx, project.ID)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatCacheStatus(status))

			tl, err := app.Timelines.Build(ctx, project.ID, calc.Window{})
			if err != nil {
				return err
			}
			if tl != nil {
				if latest := tl.Latest(); latest != nil {
					fmt.Printf("%s %s of %s remaining (%.0f%% tickets done)\n",
						formatter.Dim("Latest:       "),
						formatter.Bold(formatter.FormatHours(latest.RemainingHours)),
						formatter.FormatHours(latest.TotalEstimatedHours),
						latest.CompletionRate())
				}
			}
			return nil
		},
	}
}

func newProjectSyncCmd(app *App) *cobra.Command {
	var includeClosed bool

	cmd := &cobra.Command{
		Use:   "sync <project-id>",
		Short: "Pull the full remote state of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid project ID %q: %w", args[0], err)
			}

			result, err := app.Sync.SyncProject(cmd.Context(), projectID, sync.SyncOptions{
				IncludeClosed: includeClosed,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Synced %s: %d tickets, %d snapshot days\n",
				formatter.Bold(result.ProjectName), result.Tickets, result.SnapshotDays)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeClosed, "include-closed", true, "Include closed tickets")

	return cmd
}

func newProjectChangesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "changes <project>",
		Short: "Show the scope change log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			events, err := app.ScopeChanges.ListByProject(ctx, project.ID)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No scope changes recorded.")
				return nil
			}
			fmt.Print(formatter.FormatScopeChanges(events))
			return nil
		},
	}
}
