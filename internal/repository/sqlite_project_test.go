package repository

import (
	"context"
	"testing"
	"time"

	"rdburn/internal/domain"
	"rdburn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_UpsertAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	start := testutil.Date(2024, 1, 1)
	proj := testutil.NewTestProject(42, "backend", testutil.WithStartDate(start))
	require.NoError(t, repo.Upsert(ctx, proj))

	fetched, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, fetched.ID)
	assert.Equal(t, "backend", fetched.Name)
	assert.Equal(t, domain.ProjectActive, fetched.Status)
	require.NotNil(t, fetched.StartDate)
	assert.True(t, fetched.StartDate.Equal(start))
	assert.Nil(t, fetched.EndDate)
}

func TestProjectRepo_UpsertOverwrites(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject(1, "old-name")
	require.NoError(t, repo.Upsert(ctx, proj))

	proj.Name = "new-name"
	proj.UpdatedAt = time.Now().UTC().Add(time.Minute)
	require.NoError(t, repo.Upsert(ctx, proj))

	fetched, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new-name", fetched.Name)

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_GetByIdentifier(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testutil.NewTestProject(7, "website")))

	fetched, err := repo.GetByIdentifier(ctx, "website")
	require.NoError(t, err)
	assert.Equal(t, 7, fetched.ID)
}

func TestProjectRepo_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testutil.NewTestProject(1, "p")))
	require.NoError(t, repo.Delete(ctx, 1))

	_, err := repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
