package domain

import "time"

// DailySnapshot is the reconstructed workload state of a project as of
// one calendar day. Keyed by (ProjectID, Date); rebuilt idempotently.
type DailySnapshot struct {
	Date                 time.Time
	ProjectID            int
	TotalEstimatedHours  float64
	CompletedHours       float64
	RemainingHours       float64
	NewTicketsHours      float64
	ChangedHours         float64
	DeletedHours         float64
	ActiveTicketCount    int
	CompletedTicketCount int
}

// ScopeChange returns the day's net scope delta
// (new tickets + changes - deletions).
func (s *DailySnapshot) ScopeChange() float64 {
	return s.NewTicketsHours + s.ChangedHours - s.DeletedHours
}

// TotalTickets returns the ticket count regardless of completion state.
func (s *DailySnapshot) TotalTickets() int {
	return s.ActiveTicketCount + s.CompletedTicketCount
}

// CompletionRate returns the completed-ticket percentage, 0 when the
// project has no tickets yet.
func (s *DailySnapshot) CompletionRate() float64 {
	total := s.TotalTickets()
	if total == 0 {
		return 0
	}
	return float64(s.CompletedTicketCount) / float64(total) * 100
}
