package cli

import (
	"fmt"
	"time"

	"rdburn/internal/calc"
	"rdburn/internal/cli/formatter"

	"github.com/spf13/cobra"
)

func newMetricsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Burndown analytics over cached data",
	}

	cmd.AddCommand(
		newMetricsBurndownCmd(app),
		newMetricsBurnRateCmd(app),
		newMetricsVelocityCmd(app),
		newMetricsForecastCmd(app),
	)

	return cmd
}

func newMetricsBurndownCmd(app *App) *cobra.Command {
	var startFromStr string

	cmd := &cobra.Command{
		Use:   "burndown <project>",
		Short: "Show the ideal, dynamic and actual burndown lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := buildTimeline(cmd.Context(), app, args[0], calc.Window{})
			if err != nil {
				return err
			}

			var startFrom *time.Time
			if startFromStr != "" {
				d, err := time.Parse("2006-01-02", startFromStr)
				if err != nil {
					return fmt.Errorf("invalid start-from date %q: %w", startFromStr, err)
				}
				startFrom = &d
			}

			ideal, err := app.Calc.IdealLine(tl, startFrom)
			if err != nil {
				return err
			}
			dynamic, err := app.Calc.DynamicIdealLine(tl)
			if err != nil {
				return err
			}
			actual := app.Calc.ActualLine(tl)

			fmt.Println(formatter.Header(fmt.Sprintf("burndown: %s", tl.ProjectName)))
			fmt.Print(formatter.FormatBurndownTable(ideal, dynamic, actual))
			fmt.Printf("\n%s %s\n", formatter.Dim("Net scope change:"),
				formatter.FormatHours(tl.TotalScopeChange()))
			return nil
		},
	}

	cmd.Flags().StringVar(&startFromStr, "start-from", "", "Re-anchor the ideal line at this snapshot date (YYYY-MM-DD)")

	return cmd
}

func newMetricsBurnRateCmd(app *App) *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "burnrate <project>",
		Short: "Hours burned per day over the trailing window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := buildTimeline(cmd.Context(), app, args[0], calc.Window{})
			if err != nil {
				return err
			}
			rate := app.Calc.BurnRate(tl, windowOrDefault(window, app))
			fmt.Printf("Burn rate: %s/day\n", formatter.Bold(formatter.FormatHours(rate)))
			return nil
		},
	}

	cmd.Flags().IntVar(&window, "window", 0, "Trailing snapshot window (default from config)")

	return cmd
}

func newMetricsVelocityCmd(app *App) *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "velocity <project>",
		Short: "Completion throughput over the trailing window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := buildTimeline(cmd.Context(), app, args[0], calc.Window{})
			if err != nil {
				return err
			}
			v := app.Calc.CalcVelocity(tl, windowOrDefault(window, app))
			fmt.Print(formatter.FormatVelocity(v))
			return nil
		},
	}

	cmd.Flags().IntVar(&window, "window", 0, "Trailing snapshot window (default from config)")

	return cmd
}

func newMetricsForecastCmd(app *App) *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "forecast <project>",
		Short: "Project the completion date from recent velocity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := buildTimeline(cmd.Context(), app, args[0], calc.Window{})
			if err != nil {
				return err
			}
			f, err := app.Calc.CompletionForecast(tl, windowOrDefault(window, app))
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatForecast(f))
			return nil
		},
	}

	cmd.Flags().IntVar(&window, "window", 0, "Trailing snapshot window (default from config)")

	return cmd
}

func windowOrDefault(window int, app *App) int {
	if window > 0 {
		return window
	}
	return app.DefaultWindow
}
