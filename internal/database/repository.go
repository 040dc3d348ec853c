package database

import (
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm/clause"

	"github.com/RobBrazier/calibre-plugins/internal/logger"
)

// CoverRepository persists cover cache entries. It has the method set of
// cache.Cache[string, string] so it can back an in-memory cache.
type CoverRepository struct {
	db     *Database
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewCoverRepository creates a repository on db
func NewCoverRepository(db *Database, log *logger.Logger) *CoverRepository {
	return NewCoverRepositoryWithClock(db, log, clockwork.NewRealClock())
}

// NewCoverRepositoryWithClock creates a repository that reads time from clock
func NewCoverRepositoryWithClock(db *Database, log *logger.Logger, clock clockwork.Clock) *CoverRepository {
	return &CoverRepository{db: db, clock: clock, logger: log}
}

// Set upserts key. A ttl of zero or less never expires.
func (r *CoverRepository) Set(key, value string, ttl time.Duration) {
	entry := CoverEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = r.clock.Now().Add(ttl).UnixNano()
	}

	err := r.db.GetDB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		r.logger.Warn("Failed to persist cover cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Get returns the value for key unless it is missing or expired
func (r *CoverRepository) Get(key string) (string, bool) {
	var entry CoverEntry
	result := r.db.GetDB().
		Where("cache_key = ? AND (expires_at = 0 OR expires_at > ?)", key, r.clock.Now().UnixNano()).
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		r.logger.Warn("Failed to read cover cache entry", map[string]interface{}{
			"key":   key,
			"error": result.Error.Error(),
		})
		return "", false
	}
	if result.RowsAffected == 0 {
		return "", false
	}
	return entry.Value, true
}

// Delete removes key
func (r *CoverRepository) Delete(key string) {
	if err := r.db.GetDB().Delete(&CoverEntry{}, "cache_key = ?", key).Error; err != nil {
		r.logger.Warn("Failed to delete cover cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Clear removes every entry
func (r *CoverRepository) Clear() {
	if err := r.db.GetDB().Where("1 = 1").Delete(&CoverEntry{}).Error; err != nil {
		r.logger.Warn("Failed to clear cover cache", map[string]interface{}{"error": err.Error()})
	}
}

// Prune deletes expired entries and returns how many were removed
func (r *CoverRepository) Prune() (int64, error) {
	result := r.db.GetDB().Where("expires_at > 0 AND expires_at <= ?", r.clock.Now().UnixNano()).Delete(&CoverEntry{})
	return result.RowsAffected, result.Error
}
