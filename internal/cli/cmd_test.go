package cli

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"rdburn/internal/calc"
	"rdburn/internal/dateutil"
	"rdburn/internal/domain"
	"rdburn/internal/repository"
	"rdburn/internal/sync"
	"rdburn/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves canned remote data for CLI integration tests.
type stubSource struct {
	project *domain.Project
	tickets []*domain.Ticket
	connErr error
}

func (s *stubSource) FetchProject(ctx context.Context, projectID int) (*domain.Project, error) {
	return s.project, nil
}

func (s *stubSource) FetchVersions(ctx context.Context, projectID int) ([]domain.Version, error) {
	return nil, nil
}

func (s *stubSource) FetchAllTickets(ctx context.Context, projectID int, includeClosed bool) ([]*domain.Ticket, error) {
	return s.tickets, nil
}

func (s *stubSource) FetchUpdatedTickets(ctx context.Context, projectID int, since *time.Time) ([]*domain.Ticket, error) {
	return nil, nil
}

func (s *stubSource) TestConnection(ctx context.Context) error {
	if s.connErr != nil {
		return s.connErr
	}
	return ctx.Err()
}

// testApp wires a full App over an in-memory DB and the stub source.
func testApp(t *testing.T, source *stubSource) *App {
	t.Helper()
	database := testutil.NewTestDB(t)

	projects := repository.NewSQLiteProjectRepo(database)
	tickets := repository.NewSQLiteTicketRepo(database)
	snapshots := repository.NewSQLiteSnapshotRepo(database)
	scopeChanges := repository.NewSQLiteScopeChangeRepo(database)
	uow := testutil.NewTestUoW(database)

	return &App{
		Sync: sync.NewSynchronizer(source, projects, tickets, snapshots, scopeChanges,
			uow, sync.Options{}, zerolog.Nop()),
		Timelines:     calc.NewTimelineBuilder(projects, snapshots, scopeChanges),
		Calc:          calc.NewCalculator(dateutil.WeekdayCalendar{}, false, zerolog.Nop()),
		Projects:      projects,
		ScopeChanges:  scopeChanges,
		Source:        source,
		DefaultWindow: 7,
		Log:           zerolog.Nop(),
	}
}

func stubBackend() *stubSource {
	start := domain.DateOf(time.Now().UTC()).AddDate(0, 0, -2)
	done := start.AddDate(0, 0, 1)
	return &stubSource{
		project: testutil.NewTestProject(12, "backend", testutil.WithStartDate(start)),
		tickets: []*domain.Ticket{
			testutil.NewTestTicket(12, "open work", testutil.WithEstimate(10),
				testutil.WithCreatedOn(start), testutil.WithUpdatedOn(start)),
			testutil.NewTestTicket(12, "done work", testutil.WithEstimate(5),
				testutil.WithCreatedOn(start), testutil.WithUpdatedOn(done),
				testutil.WithStatus(5, "Closed"), testutil.WithCompletedOn(done)),
		},
	}
}

// executeCmd runs a command through the cobra tree, capturing stdout so
// direct fmt.Print calls from handlers are visible to assertions.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	orig := os.Stdout
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = pw

	root := NewRootCmd(app)
	root.SetOut(pw)
	root.SetErr(pw)
	root.SetArgs(args)
	execErr := root.Execute()

	pw.Close()
	os.Stdout = orig
	out, readErr := io.ReadAll(pr)
	require.NoError(t, readErr)
	return string(out), execErr
}

func TestProjectSyncAndList(t *testing.T) {
	app := testApp(t, stubBackend())

	out, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced")
	assert.Contains(t, out, "2 tickets")
	assert.Contains(t, out, "3 snapshot days")

	out, err = executeCmd(t, app, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "backend")
}

func TestProjectInfo_ResolvesIdentifier(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "project", "info", "backend")
	require.NoError(t, err)
	assert.Contains(t, out, "backend (#12)")
	assert.Contains(t, out, "Tickets")
}

func TestProjectChanges_EmptyLog(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "project", "changes", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "No scope changes recorded.")
}

func TestDataFetch_AlreadyUpToDate(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "data", "fetch", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Already up to date.")
}

func TestDataExport_CSV(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "data", "export", "12", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "date,total_estimated_hours")
	assert.Contains(t, out, ",15,")
}

func TestDataExport_WindowFlags(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	start := domain.DateOf(time.Now().UTC()).AddDate(0, 0, -2)
	middle := start.AddDate(0, 0, 1).Format("2006-01-02")

	out, err := executeCmd(t, app, "data", "export", "12",
		"--format", "csv", "--from", middle, "--to", middle)
	require.NoError(t, err)
	assert.Contains(t, out, middle)
	assert.NotContains(t, out, start.Format("2006-01-02"))
}

func TestDataClear(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "data", "clear", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared backend")

	_, err = executeCmd(t, app, "project", "info", "12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not cached")
}

func TestDataTest(t *testing.T) {
	app := testApp(t, stubBackend())

	out, err := executeCmd(t, app, "data", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Connection OK.")
}

func TestDataTest_HonorsCommandContext(t *testing.T) {
	app := testApp(t, stubBackend())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := NewRootCmd(app)
	root.SetArgs([]string{"data", "test"})
	err := root.ExecuteContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetricsForecast(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "metrics", "forecast", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Confidence")
}

func TestMetricsBurndown(t *testing.T) {
	app := testApp(t, stubBackend())
	_, err := executeCmd(t, app, "project", "sync", "12")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "metrics", "burndown", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "IDEAL")
	assert.Contains(t, out, "Net scope change")
}

func TestUncachedProjectError(t *testing.T) {
	app := testApp(t, stubBackend())

	_, err := executeCmd(t, app, "metrics", "velocity", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not cached")
}
