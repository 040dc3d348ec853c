package database

import (
	"time"
)

// CoverEntry is one persisted cover cache mapping, either isbn to slug or
// slug to cover url
type CoverEntry struct {
	Key   string `gorm:"column:cache_key;primaryKey" json:"key"`
	Value string `gorm:"not null" json:"value"`
	// ExpiresAt is a unix timestamp in nanoseconds, zero never expires
	ExpiresAt int64     `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable if the struct is renamed
func (CoverEntry) TableName() string {
	return "cover_entries"
}
