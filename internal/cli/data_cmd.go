package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"rdburn/internal/calc"
	"rdburn/internal/cli/formatter"
	"rdburn/internal/domain"
	"rdburn/internal/sync"

	"github.com/spf13/cobra"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the local data cache",
	}

	cmd.AddCommand(
		newDataFetchCmd(app),
		newDataStatusCmd(app),
		newDataClearCmd(app),
		newDataExportCmd(app),
		newDataTestCmd(app),
	)

	return cmd
}

func newDataFetchCmd(app *App) *cobra.Command {
	var (
		full     bool
		sinceStr string
	)

	cmd := &cobra.Command{
		Use:   "fetch <project>",
		Short: "Fetch ticket updates since the last sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			opts := sync.FetchOptions{Full: full}
			if sinceStr != "" {
				since, err := time.Parse("2006-01-02", sinceStr)
				if err != nil {
					return fmt.Errorf("invalid since date %q: %w", sinceStr, err)
				}
				opts.Since = &since
			}

			result, err := app.Sync.FetchUpdates(ctx, project.ID, opts)
			if err != nil {
				return err
			}
			if result.Tickets == 0 {
				fmt.Println("Already up to date.")
				return nil
			}
			fmt.Printf("Fetched %d updated tickets, %d scope changes, %d snapshot days rebuilt\n",
				result.Tickets, result.ScopeChanges, result.SnapshotDays)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Ignore the watermark and fetch every ticket's latest state")
	cmd.Flags().StringVar(&sinceStr, "since", "", "Explicit lower bound (YYYY-MM-DD)")

	return cmd
}

func newDataStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [project]",
		Short: "Show cache contents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 1 {
				project, err := resolveProject(ctx, app, args[0])
				if err != nil {
					return err
				}
				status, err := app.Sync.Status(ctx, project.ID)
				if err != nil {
					return err
				}
				fmt.Print(formatter.FormatCacheStatus(status))
				return nil
			}

			projects, err := app.Projects.List(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("Cache is empty.")
				return nil
			}
			for _, p := range projects {
				status, err := app.Sync.Status(ctx, p.ID)
				if err != nil {
					return err
				}
				fmt.Print(formatter.FormatCacheStatus(status))
				fmt.Println()
			}
			return nil
		},
	}
}

func newDataClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <project>",
		Short: "Remove a project's cached data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			result, err := app.Sync.ClearProject(ctx, project.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Cleared %s: %d tickets, %d snapshots, %d scope changes\n",
				project.Name, result.Tickets, result.Snapshots, result.ScopeChanges)
			return nil
		},
	}
}

func newDataExportCmd(app *App) *cobra.Command {
	var (
		format  string
		out     string
		fromStr string
		toStr   string
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export a project's snapshot history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseWindow(fromStr, toStr)
			if err != nil {
				return err
			}
			tl, err := buildTimeline(cmd.Context(), app, args[0], window)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "json":
				return exportJSON(w, tl)
			case "csv":
				return exportCSV(w, tl.Snapshots)
			default:
				return fmt.Errorf("unsupported format %q (json or csv)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json or csv")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&fromStr, "from", "", "Earliest snapshot date to export (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Latest snapshot date to export (YYYY-MM-DD)")

	return cmd
}

// parseWindow turns optional --from/--to values into a timeline window.
func parseWindow(fromStr, toStr string) (calc.Window, error) {
	var window calc.Window
	if fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return window, fmt.Errorf("invalid from date %q: %w", fromStr, err)
		}
		window.Start = &from
	}
	if toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return window, fmt.Errorf("invalid to date %q: %w", toStr, err)
		}
		window.End = &to
	}
	return window, nil
}

func newDataTestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Verify tracker connectivity and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Source.TestConnection(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Connection OK.")
			return nil
		},
	}
}

type exportSnapshot struct {
	Date                 string  `json:"date"`
	TotalEstimatedHours  float64 `json:"total_estimated_hours"`
	CompletedHours       float64 `json:"completed_hours"`
	RemainingHours       float64 `json:"remaining_hours"`
	ActiveTicketCount    int     `json:"active_ticket_count"`
	CompletedTicketCount int     `json:"completed_ticket_count"`
}

type exportTimeline struct {
	ProjectID   int              `json:"project_id"`
	ProjectName string           `json:"project_name"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date,omitempty"`
	Snapshots   []exportSnapshot `json:"snapshots"`
}

func exportJSON(w io.Writer, tl *domain.ProjectTimeline) error {
	out := exportTimeline{
		ProjectID:   tl.ProjectID,
		ProjectName: tl.ProjectName,
		StartDate:   tl.StartDate.Format("2006-01-02"),
		Snapshots:   make([]exportSnapshot, 0, len(tl.Snapshots)),
	}
	if tl.EndDate != nil {
		out.EndDate = tl.EndDate.Format("2006-01-02")
	}
	for _, s := range tl.Snapshots {
		out.Snapshots = append(out.Snapshots, exportSnapshot{
			Date:                 s.Date.Format("2006-01-02"),
			TotalEstimatedHours:  s.TotalEstimatedHours,
			CompletedHours:       s.CompletedHours,
			RemainingHours:       s.RemainingHours,
			ActiveTicketCount:    s.ActiveTicketCount,
			CompletedTicketCount: s.CompletedTicketCount,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func exportCSV(w io.Writer, snapshots []domain.DailySnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"date", "total_estimated_hours", "completed_hours", "remaining_hours",
		"active_ticket_count", "completed_ticket_count",
	}); err != nil {
		return err
	}
	for _, s := range snapshots {
		record := []string{
			s.Date.Format("2006-01-02"),
			strconv.FormatFloat(s.TotalEstimatedHours, 'f', -1, 64),
			strconv.FormatFloat(s.CompletedHours, 'f', -1, 64),
			strconv.FormatFloat(s.RemainingHours, 'f', -1, 64),
			strconv.Itoa(s.ActiveTicketCount),
			strconv.Itoa(s.CompletedTicketCount),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
