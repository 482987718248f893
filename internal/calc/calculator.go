package calc

import (
	"errors"
	"time"

	"rdburn/internal/dateutil"
	"rdburn/internal/domain"

	"github.com/rs/zerolog"
)

// ErrNoSnapshots is returned by line calculations that need at least
// one snapshot to anchor on.
var ErrNoSnapshots = errors.New("timeline has no snapshots")

// Point is one (date, hours) pair of a burndown line.
type Point struct {
	Date  time.Time
	Hours float64
}

// Velocity is completion throughput over a trailing snapshot window.
type Velocity struct {
	// HoursPerDay is completed hours per snapshot-to-snapshot step.
	HoursPerDay      float64
	TicketsCompleted int
	HoursCompleted   float64
	// PeriodDays is the number of steps the window actually covered.
	PeriodDays int
}

// Confidence grades a completion forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Forecast is a projected completion. Date and DaysRemaining are nil
// when the forecast is indeterminate (no measurable velocity).
type Forecast struct {
	Date           *time.Time
	DaysRemaining  *int
	RemainingHours float64
	Velocity       float64
	Confidence     Confidence
}

// Calculator derives burndown analytics from an assembled timeline.
// Every method is a pure function of its inputs; there is no store
// access here.
type Calculator struct {
	calendar         dateutil.Calendar
	businessDaysOnly bool
	log              zerolog.Logger

	now func() time.Time
}

// NewCalculator builds a calculator. With businessDaysOnly the ideal
// line only decays on working days per the given calendar.
func NewCalculator(calendar dateutil.Calendar, businessDaysOnly bool, log zerolog.Logger) *Calculator {
	if calendar == nil {
		calendar = dateutil.WeekdayCalendar{}
	}
	return &Calculator{
		calendar:         calendar,
		businessDaysOnly: businessDaysOnly,
		log:              log,
		now:              time.Now,
	}
}

// IdealLine is the linear decay from the initial scope to zero across
// the project span. A non-nil startFrom re-anchors the line at that
// snapshot's remaining hours; if no snapshot exists for that exact day
// the original anchor is kept and a warning logged.
func (c *Calculator) IdealLine(tl *domain.ProjectTimeline, startFrom *time.Time) ([]Point, error) {
	if len(tl.Snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	start := domain.DateOf(tl.StartDate)
	initial := tl.Snapshots[0].TotalEstimatedHours

	if startFrom != nil {
		if snap := tl.SnapshotOn(*startFrom); snap != nil {
			start = snap.Date
			initial = snap.RemainingHours
		} else {
			c.log.Warn().
				Int("project_id", tl.ProjectID).
				Str("start_from", startFrom.Format("2006-01-02")).
				Msg("no snapshot for requested anchor date, using project start")
		}
	}

	end := c.endOf(tl)
	span := c.spanSteps(start, end)
	if span <= 0 {
		return []Point{{Date: start, Hours: initial}, {Date: end, Hours: 0}}, nil
	}

	decrement := initial / float64(span)
	points := make([]Point, 0, span+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		remaining := initial - decrement*float64(c.elapsedSteps(start, d))
		if remaining < 0 {
			remaining = 0
		}
		points = append(points, Point{Date: d, Hours: remaining})
	}
	return points, nil
}

// ActualLine maps each stored snapshot to its remaining hours. No
// interpolation between stored dates.
func (c *Calculator) ActualLine(tl *domain.ProjectTimeline) []Point {
	points := make([]Point, 0, len(tl.Snapshots))
	for _, s := range tl.Snapshots {
		points = append(points, Point{Date: s.Date, Hours: s.RemainingHours})
	}
	return points
}

// ScopeTrendLine maps each stored snapshot to its total estimated
// hours, showing scope movement independent of completion.
func (c *Calculator) ScopeTrendLine(tl *domain.ProjectTimeline) []Point {
	points := make([]Point, 0, len(tl.Snapshots))
	for _, s := range tl.Snapshots {
		points = append(points, Point{Date: s.Date, Hours: s.TotalEstimatedHours})
	}
	return points
}

// DynamicIdealLine re-baselines the target on every scope change: it
// walks each calendar day of the span, folds that day's net scope delta
// into a running total and subtracts the completed hours recorded for
// that exact day (0 when no snapshot exists). Days with no business
// days left before the end report 0.
func (c *Calculator) DynamicIdealLine(tl *domain.ProjectTimeline) ([]Point, error) {
	if len(tl.Snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	start := domain.DateOf(tl.StartDate)
	end := c.endOf(tl)
	deltas := make(map[time.Time]float64, len(tl.ScopeChanges))
	for _, e := range tl.ScopeChanges {
		day := domain.DateOf(e.Date)
		deltas[day] += e.HoursDelta
	}

	running := tl.Snapshots[0].TotalEstimatedHours
	var points []Point
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		running += deltas[d]

		if c.calendar.BusinessDaysBetween(d, end) <= 0 {
			points = append(points, Point{Date: d, Hours: 0})
			continue
		}

		var completed float64
		if snap := tl.SnapshotOn(d); snap != nil {
			completed = snap.CompletedHours
		}
		remaining := running - completed
		if remaining < 0 {
			remaining = 0
		}
		points = append(points, Point{Date: d, Hours: remaining})
	}
	return points, nil
}

// BurnRate is remaining-hours consumed per step over a trailing window
// of up to windowSnapshots snapshots. Fewer than two snapshots in the
// window yields 0.
func (c *Calculator) BurnRate(tl *domain.ProjectTimeline, windowSnapshots int) float64 {
	window := trailingWindow(tl.Snapshots, windowSnapshots)
	if len(window) < 2 {
		return 0
	}
	steps := float64(len(window) - 1)
	return (window[0].RemainingHours - window[len(window)-1].RemainingHours) / steps
}

// CalcVelocity measures completion throughput over a trailing window of
// up to windowSnapshots snapshots. Fewer than two snapshots yields a
// zero-valued result.
func (c *Calculator) CalcVelocity(tl *domain.ProjectTimeline, windowSnapshots int) Velocity {
	window := trailingWindow(tl.Snapshots, windowSnapshots)
	if len(window) < 2 {
		return Velocity{}
	}
	first, last := window[0], window[len(window)-1]
	steps := len(window) - 1
	return Velocity{
		HoursPerDay:      (last.CompletedHours - first.CompletedHours) / float64(steps),
		TicketsCompleted: last.CompletedTicketCount - first.CompletedTicketCount,
		HoursCompleted:   last.CompletedHours - first.CompletedHours,
		PeriodDays:       steps,
	}
}

// CompletionForecast projects when remaining work runs out, based on
// velocity over the given trailing window. An exhausted backlog
// forecasts the latest snapshot date at high confidence; a project with
// no measurable velocity is indeterminate at low confidence.
func (c *Calculator) CompletionForecast(tl *domain.ProjectTimeline, velocityWindow int) (*Forecast, error) {
	latest := tl.Latest()
	if latest == nil {
		return nil, ErrNoSnapshots
	}

	if latest.RemainingHours <= 0 {
		date := latest.Date
		days := 0
		return &Forecast{
			Date:          &date,
			DaysRemaining: &days,
			Confidence:    ConfidenceHigh,
		}, nil
	}

	velocity := c.CalcVelocity(tl, velocityWindow)
	forecast := &Forecast{
		RemainingHours: latest.RemainingHours,
		Velocity:       velocity.HoursPerDay,
	}
	if velocity.HoursPerDay <= 0 {
		forecast.Confidence = ConfidenceLow
		return forecast, nil
	}

	days := int(latest.RemainingHours / velocity.HoursPerDay)
	date := latest.Date.AddDate(0, 0, days)
	forecast.Date = &date
	forecast.DaysRemaining = &days

	if c.BurnRate(tl, velocityWindow) > 0 {
		forecast.Confidence = ConfidenceHigh
	} else {
		forecast.Confidence = ConfidenceMedium
	}
	return forecast, nil
}

func (c *Calculator) endOf(tl *domain.ProjectTimeline) time.Time {
	if tl.EndDate != nil {
		return domain.DateOf(*tl.EndDate)
	}
	return domain.DateOf(c.now())
}

// spanSteps counts the decay steps between start and end: calendar days
// by default, business-day steps when the calculator excludes weekends.
func (c *Calculator) spanSteps(start, end time.Time) int {
	if c.businessDaysOnly {
		return c.calendar.BusinessDaysBetween(start, end) - 1
	}
	return int(end.Sub(start).Hours() / 24)
}

func (c *Calculator) elapsedSteps(start, d time.Time) int {
	if c.businessDaysOnly {
		elapsed := c.calendar.BusinessDaysBetween(start, d) - 1
		if elapsed < 0 {
			return 0
		}
		return elapsed
	}
	return int(d.Sub(start).Hours() / 24)
}

func trailingWindow(snapshots []domain.DailySnapshot, n int) []domain.DailySnapshot {
	if n <= 0 || n > len(snapshots) {
		n = len(snapshots)
	}
	return snapshots[len(snapshots)-n:]
}
