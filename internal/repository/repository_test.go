package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/livetrack-backend-go/internal/database"
	"github.com/jengzang/livetrack-backend-go/internal/models"
	"github.com/jengzang/livetrack-backend-go/pkg/positions"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCompetitor(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, NewEventRepository(db).Create(ctx, &models.Event{ID: "e1", Name: "Spring Cup", StartTime: 0, EndTime: 10_000}))
	require.NoError(t, NewCompetitorRepository(db).Create(ctx, &models.Competitor{ID: "c1", EventID: "e1", Name: "Alice"}))
}

func TestEventRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Event{ID: "e1", Name: "Old", StartTime: 100, EndTime: 200}))
	require.NoError(t, repo.Create(ctx, &models.Event{ID: "e2", Name: "New", StartTime: 300, EndTime: 400}))

	err := repo.Create(ctx, &models.Event{ID: "e1", Name: "Again"})
	assert.True(t, errors.Is(err, ErrConflict))

	e, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Old", e.Name)
	assert.Equal(t, int64(200), e.EndTime)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	events, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
}

func TestCompetitorRepository(t *testing.T) {
	db := openTestDB(t)
	seedCompetitor(t, db)
	repo := NewCompetitorRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Competitor{ID: "c0", EventID: "e1", Name: "Bob", ShortName: "B"}))

	c, err := repo.GetByID(ctx, "c0")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "B", c.ShortName)

	list, err := repo.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)

	// unknown event violates the foreign key
	assert.Error(t, repo.Create(ctx, &models.Competitor{ID: "c9", EventID: "missing", Name: "X"}))
}

func TestPositionRepository(t *testing.T) {
	db := openTestDB(t)
	seedCompetitor(t, db)
	repo := NewPositionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, "c1", []positions.Position{
		{Timestamp: 3000, Latitude: 3, Longitude: 3},
		{Timestamp: 1000, Latitude: 1, Longitude: 1},
		{Timestamp: 2000, Latitude: 2, Longitude: 2},
	}))
	// overwrite
	require.NoError(t, repo.UpsertBatch(ctx, "c1", []positions.Position{
		{Timestamp: 2000, Latitude: 20, Longitude: 20},
	}))

	n, err := repo.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	a, err := repo.LoadArchive(ctx, "c1", 0, 5000)
	require.NoError(t, err)
	require.Equal(t, 3, a.Len())
	p, _ := a.At(1)
	assert.Equal(t, positions.Position{Timestamp: 2000, Latitude: 20, Longitude: 20}, p)

	a, err = repo.LoadArchive(ctx, "c1", 1500, 2500)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())

	removed, err := repo.DeleteInterval(ctx, "c1", 2000, 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	n, err = repo.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	db, err := database.Open(database.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.Open(database.Config{Path: path})
	require.NoError(t, err)
	defer db.Close()

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}
