package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rdburn/internal/calc"
	"rdburn/internal/domain"
	"rdburn/internal/sync"
)

// FormatHours renders an hour value without trailing zeros, e.g. "12.5h".
func FormatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "h"
}

// FormatDate renders a calendar day.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatProjectList renders the cached projects as a table.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "IDENTIFIER", "STATUS", "START", "END"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		status := StyleGreen.Render("active")
		if !p.IsActive() {
			status = StyleDim.Render("closed")
		}
		start, end := Dim("-"), Dim("-")
		if p.StartDate != nil {
			start = FormatDate(*p.StartDate)
		}
		if p.EndDate != nil {
			end = FormatDate(*p.EndDate)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.ID), Bold(p.Name), p.Identifier, status, start, end,
		})
	}
	return RenderTable(headers, rows)
}

// FormatCacheStatus renders one project's cache footprint.
func FormatCacheStatus(s *sync.CacheStatus) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("%s (#%d)", s.ProjectName, s.ProjectID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d\n", Dim("Tickets:      "), s.Tickets)
	fmt.Fprintf(&b, "%s %d\n", Dim("Snapshots:    "), s.Snapshots)
	fmt.Fprintf(&b, "%s %d\n", Dim("Scope changes:"), s.ScopeChanges)
	last := "never"
	if s.LastUpdate != nil {
		last = FormatDate(*s.LastUpdate)
	}
	fmt.Fprintf(&b, "%s %s\n", Dim("Last update:  "), last)
	return b.String()
}

// FormatScopeChanges renders the scope change log as a table.
func FormatScopeChanges(events []domain.ScopeChangeEvent) string {
	headers := []string{"DATE", "TICKET", "TYPE", "DELTA", "IMPACT", "SUBJECT"}
	rows := make([][]string, 0, len(events))
	for i := range events {
		e := &events[i]
		delta := FormatHours(e.HoursDelta)
		if e.HoursDelta > 0 {
			delta = "+" + delta
		}
		rows = append(rows, []string{
			FormatDate(e.Date),
			"#" + strconv.Itoa(e.TicketID),
			string(e.ChangeType),
			DeltaStyle(e.HoursDelta).Render(delta),
			ImpactStyle(e.Impact()).Render(string(e.Impact())),
			e.TicketSubject,
		})
	}
	return RenderTable(headers, rows)
}

// FormatVelocity renders a velocity measurement.
func FormatVelocity(v calc.Velocity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s/day\n", Dim("Velocity:         "), Bold(FormatHours(v.HoursPerDay)))
	fmt.Fprintf(&b, "%s %s\n", Dim("Hours completed:  "), FormatHours(v.HoursCompleted))
	fmt.Fprintf(&b, "%s %d\n", Dim("Tickets completed:"), v.TicketsCompleted)
	fmt.Fprintf(&b, "%s %d\n", Dim("Window steps:     "), v.PeriodDays)
	return b.String()
}

// FormatForecast renders a completion forecast.
func FormatForecast(f *calc.Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Dim("Confidence:     "), ConfidenceIndicator(f.Confidence))
	fmt.Fprintf(&b, "%s %s\n", Dim("Remaining:      "), FormatHours(f.RemainingHours))
	fmt.Fprintf(&b, "%s %s/day\n", Dim("Velocity:       "), FormatHours(f.Velocity))
	if f.Date == nil {
		fmt.Fprintf(&b, "%s %s\n", Dim("Completion:     "), StyleRed.Render("indeterminate"))
		return b.String()
	}
	fmt.Fprintf(&b, "%s %s\n", Dim("Completion:     "), Bold(FormatDate(*f.Date)))
	fmt.Fprintf(&b, "%s %d\n", Dim("Days remaining: "), *f.DaysRemaining)
	return b.String()
}

// FormatBurndownTable merges the calculated lines into one table keyed
// by the ideal line's dates. Actual values only exist on snapshot days.
func FormatBurndownTable(ideal, dynamic, actual []calc.Point) string {
	actualByDay := make(map[time.Time]float64, len(actual))
	for _, p := range actual {
		actualByDay[p.Date] = p.Hours
	}
	dynamicByDay := make(map[time.Time]float64, len(dynamic))
	for _, p := range dynamic {
		dynamicByDay[p.Date] = p.Hours
	}

	headers := []string{"DATE", "IDEAL", "DYNAMIC", "ACTUAL"}
	rows := make([][]string, 0, len(ideal))
	for _, p := range ideal {
		dyn := Dim("-")
		if v, ok := dynamicByDay[p.Date]; ok {
			dyn = FormatHours(v)
		}
		act := Dim("-")
		if v, ok := actualByDay[p.Date]; ok {
			act = StyleBlue.Render(FormatHours(v))
		}
		rows = append(rows, []string{
			FormatDate(p.Date),
			FormatHours(roundHours(p.Hours)),
			dyn,
			act,
		})
	}
	return RenderTable(headers, rows)
}

// roundHours keeps line output readable: two decimals, no float dust.
func roundHours(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
