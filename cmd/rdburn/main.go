package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rdburn/internal/calc"
	"rdburn/internal/cli"
	"rdburn/internal/config"
	"rdburn/internal/dateutil"
	"rdburn/internal/db"
	"rdburn/internal/logger"
	"rdburn/internal/redmine"
	"rdburn/internal/repository"
	"rdburn/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("RDBURN_CONFIG"))
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging.Level)

	if err := os.MkdirAll(cfg.Data.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories and the unit of work.
	projects := repository.NewSQLiteProjectRepo(database)
	tickets := repository.NewSQLiteTicketRepo(database)
	snapshots := repository.NewSQLiteSnapshotRepo(database)
	scopeChanges := repository.NewSQLiteScopeChangeRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	// Remote source.
	converter := redmine.NewConverter(cfg.Tickets.CompletedStatusIDs)
	client := redmine.NewClient(cfg.Redmine, converter, log)

	// Sync and calculation layers.
	synchronizer := sync.NewSynchronizer(client, projects, tickets, snapshots, scopeChanges, uow,
		sync.Options{
			CacheDir:                cfg.Data.CacheDir,
			TrailingWindowDays:      cfg.Data.TrailingWindowDays,
			RecordZeroEstimateAdded: cfg.Tickets.RecordZeroEstimateAdded,
		}, log)

	var calendar dateutil.Calendar = dateutil.WeekdayCalendar{}
	if holidays := cfg.HolidayDates(); len(holidays) > 0 {
		calendar = dateutil.NewHolidayCalendar(holidays)
	}

	app := &cli.App{
		Sync:          synchronizer,
		Timelines:     calc.NewTimelineBuilder(projects, snapshots, scopeChanges),
		Calc:          calc.NewCalculator(calendar, cfg.Date.BusinessDaysOnly, log),
		Projects:      projects,
		ScopeChanges:  scopeChanges,
		Source:        client,
		DefaultWindow: cfg.Data.TrailingWindowDays,
		Log:           log,
	}

	// Interrupts cancel in-flight fetches through the command context.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
