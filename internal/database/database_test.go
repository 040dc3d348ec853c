package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobBrazier/calibre-plugins/internal/logger"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "covers.db")
	db, err := NewDatabase(path, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Health())
	assert.True(t, db.GetDB().Migrator().HasTable(&CoverEntry{}))
}

func TestNewDatabase_EmptyPath(t *testing.T) {
	_, err := NewDatabase("", logger.Nop())
	assert.Error(t, err)
}

func TestCoverRepository(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := NewCoverRepositoryWithClock(setupTestDB(t), logger.Nop(), clock)

	_, ok := repo.Get("the-hobbit")
	assert.False(t, ok)

	repo.Set("the-hobbit", "https://assets.hardcover.app/hobbit.jpg", time.Hour)
	repo.Set("9780618968633", "the-hobbit", 0)

	v, ok := repo.Get("the-hobbit")
	require.True(t, ok)
	assert.Equal(t, "https://assets.hardcover.app/hobbit.jpg", v)

	// upsert replaces the value
	repo.Set("the-hobbit", "https://assets.hardcover.app/hobbit-2.jpg", time.Hour)
	v, ok = repo.Get("the-hobbit")
	require.True(t, ok)
	assert.Equal(t, "https://assets.hardcover.app/hobbit-2.jpg", v)

	clock.Advance(2 * time.Hour)
	_, ok = repo.Get("the-hobbit")
	assert.False(t, ok)

	v, ok = repo.Get("9780618968633")
	require.True(t, ok)
	assert.Equal(t, "the-hobbit", v)

	removed, err := repo.Prune()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	repo.Delete("9780618968633")
	_, ok = repo.Get("9780618968633")
	assert.False(t, ok)
}

func TestCoverRepository_Clear(t *testing.T) {
	repo := NewCoverRepository(setupTestDB(t), logger.Nop())
	repo.Set("a", "1", 0)
	repo.Set("b", "2", 0)

	repo.Clear()

	var count int64
	require.NoError(t, repo.db.GetDB().Model(&CoverEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}
