package redmine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Ticket_OpenStatusHasNoCompletion(t *testing.T) {
	conv := NewConverter([]int{3, 5, 6})

	ticket, err := conv.Ticket(wireIssue{
		ID:        1,
		Subject:   "open work",
		Status:    wireRef{ID: 2, Name: "In Progress"},
		Project:   wireRef{ID: 9},
		CreatedOn: "2024-01-01T08:00:00Z",
		UpdatedOn: "2024-01-05T08:00:00Z",
	})
	require.NoError(t, err)
	assert.Nil(t, ticket.CompletedOn)
	assert.Nil(t, ticket.EstimatedHours)
	assert.Equal(t, 9, ticket.ProjectID)
}

func TestConverter_Ticket_CompletedStatusUsesUpdatedOn(t *testing.T) {
	conv := NewConverter([]int{3, 5, 6})

	ticket, err := conv.Ticket(wireIssue{
		ID:        2,
		Subject:   "done work",
		Status:    wireRef{ID: 5, Name: "Closed"},
		Project:   wireRef{ID: 9},
		CreatedOn: "2024-01-01T08:00:00Z",
		UpdatedOn: "2024-01-20T17:30:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.CompletedOn)
	assert.True(t, ticket.CompletedOn.Equal(ticket.UpdatedOn))
}

func TestConverter_Ticket_OffsetTimestampsBecomeUTC(t *testing.T) {
	conv := NewConverter(nil)

	ticket, err := conv.Ticket(wireIssue{
		ID:        4,
		Subject:   "tokyo office",
		Status:    wireRef{ID: 1, Name: "New"},
		Project:   wireRef{ID: 9},
		CreatedOn: "2024-01-02T08:00:00+09:00",
		UpdatedOn: "2024-01-02T08:00:00+09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ticket.UpdatedOn.Location())
	assert.Equal(t, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), ticket.UpdatedOn)
}

func TestConverter_Ticket_References(t *testing.T) {
	conv := NewConverter(nil)

	ticket, err := conv.Ticket(wireIssue{
		ID:           3,
		Subject:      "assigned",
		Status:       wireRef{ID: 1, Name: "New"},
		Project:      wireRef{ID: 9},
		AssignedTo:   &wireRef{ID: 55, Name: "dev"},
		FixedVersion: &wireRef{ID: 4, Name: "v1.2"},
		CreatedOn:    "2024-01-01T08:00:00Z",
		UpdatedOn:    "2024-01-01T08:00:00Z",
		CustomFields: []wireCustomField{
			{Name: "severity", Value: json.RawMessage(`"major"`)},
			{Name: "points", Value: json.RawMessage(`13`)},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.AssignedToID)
	assert.Equal(t, 55, *ticket.AssignedToID)
	assert.Equal(t, "dev", ticket.AssignedToName)
	require.NotNil(t, ticket.VersionID)
	assert.Equal(t, "v1.2", ticket.VersionName)
	assert.Equal(t, "major", ticket.CustomFields["severity"])
	assert.Equal(t, "13", ticket.CustomFields["points"])
}

func TestConverter_Project_MissingDateFields(t *testing.T) {
	conv := NewConverter(nil)

	p, err := conv.Project(wireProject{
		ID:         1,
		Name:       "bare",
		Identifier: "bare",
		CreatedOn:  "2024-01-01T00:00:00Z",
		UpdatedOn:  "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Nil(t, p.StartDate)
	assert.Nil(t, p.EndDate)
}
