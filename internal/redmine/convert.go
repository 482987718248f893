package redmine

import (
	"encoding/json"
	"fmt"
	"time"

	"rdburn/internal/domain"
)

type wireRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type wireCustomField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type wireProject struct {
	ID           int               `json:"id"`
	Name         string            `json:"name"`
	Identifier   string            `json:"identifier"`
	Description  string            `json:"description"`
	Status       int               `json:"status"`
	CreatedOn    string            `json:"created_on"`
	UpdatedOn    string            `json:"updated_on"`
	CustomFields []wireCustomField `json:"custom_fields"`
}

type wireVersion struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	DueDate string `json:"due_date"`
}

type wireIssue struct {
	ID             int               `json:"id"`
	Subject        string            `json:"subject"`
	EstimatedHours *float64          `json:"estimated_hours"`
	Status         wireRef           `json:"status"`
	Project        wireRef           `json:"project"`
	AssignedTo     *wireRef          `json:"assigned_to"`
	FixedVersion   *wireRef          `json:"fixed_version"`
	CreatedOn      string            `json:"created_on"`
	UpdatedOn      string            `json:"updated_on"`
	CustomFields   []wireCustomField `json:"custom_fields"`
}

// Custom field names carrying the project's planned date range. Redmine
// has no native project start/end, so trackers model them as custom
// fields.
const (
	startDateField = "start_date"
	endDateField   = "end_date"
)

// Converter maps wire payloads to domain records. The completed-status
// set decides which tickets get a derived completion timestamp.
type Converter struct {
	completedStatusIDs map[int]struct{}
}

// NewConverter builds a Converter for the given completed status IDs.
func NewConverter(completedStatusIDs []int) *Converter {
	set := make(map[int]struct{}, len(completedStatusIDs))
	for _, id := range completedStatusIDs {
		set[id] = struct{}{}
	}
	return &Converter{completedStatusIDs: set}
}

// Project converts wire project metadata.
func (c *Converter) Project(w wireProject) (*domain.Project, error) {
	createdOn, err := parseTimestamp(w.CreatedOn)
	if err != nil {
		return nil, fmt.Errorf("project %d created_on: %w", w.ID, err)
	}
	updatedOn, err := parseTimestamp(w.UpdatedOn)
	if err != nil {
		return nil, fmt.Errorf("project %d updated_on: %w", w.ID, err)
	}

	p := &domain.Project{
		ID:          w.ID,
		Name:        w.Name,
		Identifier:  w.Identifier,
		Description: w.Description,
		Status:      domain.ProjectStatus(w.Status),
		CreatedOn:   createdOn,
		UpdatedOn:   updatedOn,
	}
	if p.Status == 0 {
		p.Status = domain.ProjectActive
	}

	for _, f := range w.CustomFields {
		switch f.Name {
		case startDateField:
			p.StartDate = parseDateField(f.Value)
		case endDateField:
			p.EndDate = parseDateField(f.Value)
		}
	}
	return p, nil
}

// Version converts a wire version.
func (c *Converter) Version(w wireVersion) domain.Version {
	v := domain.Version{ID: w.ID, Name: w.Name, Status: w.Status}
	if w.DueDate != "" {
		if d, err := time.Parse("2006-01-02", w.DueDate); err == nil {
			v.DueDate = &d
		}
	}
	return v
}

// Ticket converts a wire issue. CompletedOn derives from the update
// timestamp when the status is in the completed set.
func (c *Converter) Ticket(w wireIssue) (*domain.Ticket, error) {
	createdOn, err := parseTimestamp(w.CreatedOn)
	if err != nil {
		return nil, fmt.Errorf("issue %d created_on: %w", w.ID, err)
	}
	updatedOn, err := parseTimestamp(w.UpdatedOn)
	if err != nil {
		return nil, fmt.Errorf("issue %d updated_on: %w", w.ID, err)
	}

	t := &domain.Ticket{
		ID:             w.ID,
		ProjectID:      w.Project.ID,
		Subject:        w.Subject,
		EstimatedHours: w.EstimatedHours,
		StatusID:       w.Status.ID,
		StatusName:     w.Status.Name,
		CreatedOn:      createdOn,
		UpdatedOn:      updatedOn,
	}

	if _, done := c.completedStatusIDs[w.Status.ID]; done {
		completed := updatedOn
		t.CompletedOn = &completed
	}

	if w.AssignedTo != nil {
		id := w.AssignedTo.ID
		t.AssignedToID = &id
		t.AssignedToName = w.AssignedTo.Name
	}
	if w.FixedVersion != nil {
		id := w.FixedVersion.ID
		t.VersionID = &id
		t.VersionName = w.FixedVersion.Name
	}

	if len(w.CustomFields) > 0 {
		t.CustomFields = make(map[string]string, len(w.CustomFields))
		for _, f := range w.CustomFields {
			t.CustomFields[f.Name] = rawToString(f.Value)
		}
	}
	return t, nil
}

// parseTimestamp normalizes wire timestamps to UTC. Stored RFC3339
// strings are compared lexicographically, so offsets must not survive.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseDateField(raw json.RawMessage) *time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return &d
	}
	return nil
}

// rawToString flattens a custom field value. Values are usually strings
// but can be numbers or arrays.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
