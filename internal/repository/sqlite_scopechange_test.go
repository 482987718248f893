package repository

import (
	"context"
	"testing"

	"rdburn/internal/domain"
	"rdburn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeChangeRepo_CreateAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedProject(t, NewSQLiteProjectRepo(db), 1)
	repo := NewSQLiteScopeChangeRepo(db)
	ctx := context.Background()

	added := &domain.ScopeChangeEvent{
		Date:          testutil.Date(2024, 1, 10),
		ProjectID:     1,
		TicketID:      100,
		TicketSubject: "new feature",
		ChangeType:    domain.ChangeAdded,
		HoursDelta:    8,
		NewHours:      testutil.Hours(8),
		Reason:        "Ticket added",
	}
	require.NoError(t, repo.Create(ctx, added))
	assert.NotEmpty(t, added.ID, "create assigns an event ID")

	modified := &domain.ScopeChangeEvent{
		Date:          testutil.Date(2024, 1, 12),
		ProjectID:     1,
		TicketID:      100,
		TicketSubject: "new feature",
		ChangeType:    domain.ChangeModified,
		HoursDelta:    -3,
		OldHours:      testutil.Hours(8),
		NewHours:      testutil.Hours(5),
		Reason:        "Ticket modified",
	}
	require.NoError(t, repo.Create(ctx, modified))

	events, err := repo.ListByProject(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, domain.ChangeAdded, events[0].ChangeType)
	assert.Nil(t, events[0].OldHours)
	require.NotNil(t, events[0].NewHours)
	assert.Equal(t, 8.0, *events[0].NewHours)

	assert.Equal(t, domain.ChangeModified, events[1].ChangeType)
	assert.Equal(t, -3.0, events[1].HoursDelta)
}

func TestScopeChangeRepo_MultipleEventsSameTicket(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedProject(t, NewSQLiteProjectRepo(db), 1)
	repo := NewSQLiteScopeChangeRepo(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.ScopeChangeEvent{
			Date:       testutil.Date(2024, 1, 10+i),
			ProjectID:  1,
			TicketID:   100,
			ChangeType: domain.ChangeModified,
			HoursDelta: 1,
		}))
	}

	count, err := repo.CountByProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestScopeChangeRepo_DeleteByProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedProject(t, NewSQLiteProjectRepo(db), 1)
	repo := NewSQLiteScopeChangeRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.ScopeChangeEvent{
		Date: testutil.Date(2024, 1, 10), ProjectID: 1, ChangeType: domain.ChangeAdded, HoursDelta: 5,
	}))
	require.NoError(t, repo.DeleteByProject(ctx, 1))

	count, err := repo.CountByProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
