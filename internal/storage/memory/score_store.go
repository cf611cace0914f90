// Package memory provides in-process store implementations for development and tests.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/JakeFAU/openwax/internal/score"
)

// ScoreStore keeps score records in a map keyed by URL.
type ScoreStore struct {
	mu      sync.RWMutex
	records map[string]score.Record
}

// NewScoreStore constructs an empty ScoreStore.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		records: make(map[string]score.Record),
	}
}

// FindByURL fetches a record by exact URL.
func (s *ScoreStore) FindByURL(_ context.Context, url string) (score.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[url]
	if !ok {
		return score.Record{}, score.ErrNotFound
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *ScoreStore) Recent(_ context.Context, limit int) ([]score.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sortedLocked(nil)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByPattern returns records whose URL matches pattern, newest first.
func (s *ScoreStore) FindByPattern(_ context.Context, pattern string) ([]score.Record, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(re), nil
}

// Save stores rec, replacing any record with the same URL.
func (s *ScoreStore) Save(_ context.Context, rec score.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.URL] = rec
	return nil
}

// Ping always succeeds.
func (s *ScoreStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *ScoreStore) Close() error { return nil }

// Len reports how many records are held.
func (s *ScoreStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *ScoreStore) sortedLocked(re *regexp.Regexp) []score.Record {
	out := make([]score.Record, 0, len(s.records))
	for _, rec := range s.records {
		if re != nil && !re.MatchString(rec.URL) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}
