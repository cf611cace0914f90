package score

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that no record exists for the requested URL.
var ErrNotFound = errors.New("score record not found")

// RecentLimit caps the recent-activity listing.
const RecentLimit = 5

// Record is the aggregate state for one tracked URL.
type Record struct {
	// URL is the unique key of the record.
	URL string `json:"url"`
	// Title is the most recently submitted page title.
	Title string `json:"title"`
	// Score is the most recently submitted score.
	Score int64 `json:"score"`
	// Times counts accepted submissions and only grows.
	Times int64 `json:"times"`
	// UpdatedAt is when the latest accepted submission arrived.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists score records keyed by URL.
type Store interface {
	// FindByURL returns the record for url or ErrNotFound.
	FindByURL(ctx context.Context, url string) (Record, error)
	// Recent returns up to limit records, newest updated_at first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	// FindByPattern returns records whose url matches pattern as a regular
	// expression, newest updated_at first.
	FindByPattern(ctx context.Context, pattern string) ([]Record, error)
	// Save inserts or replaces the record keyed by rec.URL.
	Save(ctx context.Context, rec Record) error
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}

// Clock supplies timestamps for updated_at.
type Clock interface {
	Now() time.Time
}
