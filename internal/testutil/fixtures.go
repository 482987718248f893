package testutil

import (
	"sync/atomic"
	"time"

	"rdburn/internal/domain"
)

var testTicketCounter atomic.Int64

// Date builds a UTC calendar day, the unit most fixtures care about.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Hours returns a pointer to an estimate value.
func Hours(v float64) *float64 { return &v }

// Project options
type ProjectOption func(*domain.Project)

func WithStartDate(d time.Time) ProjectOption {
	return func(p *domain.Project) { p.StartDate = &d }
}

func WithEndDate(d time.Time) ProjectOption {
	return func(p *domain.Project) { p.EndDate = &d }
}

func NewTestProject(id int, name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:         id,
		Name:       name,
		Identifier: name,
		Status:     domain.ProjectActive,
		CreatedOn:  now.AddDate(0, -2, 0),
		UpdatedOn:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ticket options
type TicketOption func(*domain.Ticket)

func WithEstimate(hours float64) TicketOption {
	return func(t *domain.Ticket) { t.EstimatedHours = &hours }
}

func WithNoEstimate() TicketOption {
	return func(t *domain.Ticket) { t.EstimatedHours = nil }
}

func WithCreatedOn(ts time.Time) TicketOption {
	return func(t *domain.Ticket) { t.CreatedOn = ts }
}

func WithUpdatedOn(ts time.Time) TicketOption {
	return func(t *domain.Ticket) { t.UpdatedOn = ts }
}

func WithCompletedOn(ts time.Time) TicketOption {
	return func(t *domain.Ticket) { t.CompletedOn = &ts }
}

func WithStatus(id int, name string) TicketOption {
	return func(t *domain.Ticket) {
		t.StatusID = id
		t.StatusName = name
	}
}

func NewTestTicket(projectID int, subject string, opts ...TicketOption) *domain.Ticket {
	now := time.Now().UTC()
	t := &domain.Ticket{
		ID:         int(testTicketCounter.Add(1)),
		ProjectID:  projectID,
		Subject:    subject,
		StatusID:   1,
		StatusName: "New",
		CreatedOn:  now.AddDate(0, -1, 0),
		UpdatedOn:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
