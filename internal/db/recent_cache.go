package db

import (
	"context"
	"log/slog"
	"sync"
)

type recentRunsQuerier interface {
	RecentRuns(ctx context.Context, limit int32) ([]*Run, error)
}

// RecentRunsCache holds the latest runs for the home page so rendering it
// never waits on Postgres. It is refreshed after every insert or upload.
type RecentRunsCache struct {
	mu    sync.RWMutex
	runs  []*Run
	q     recentRunsQuerier
	limit int32
}

// NewRecentRunsCache loads the initial list. A missing table (migrations not
// yet applied) yields an empty cache rather than an error.
func NewRecentRunsCache(ctx context.Context, q recentRunsQuerier, limit int32) (*RecentRunsCache, error) {
	c := &RecentRunsCache{q: q, limit: limit}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the cached runs, newest first. Safe for concurrent reads.
func (c *RecentRunsCache) Get() []*Run {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runs
}

// Reload fetches fresh rows from the database and swaps them in.
func (c *RecentRunsCache) Reload(ctx context.Context) error {
	runs, err := c.q.RecentRuns(ctx, c.limit)
	if err != nil {
		if !IsUndefinedTableErr(err) {
			return err
		}
		slog.Warn("runs table missing; run pg-migrator to enable history")
		runs = nil
	}
	c.mu.Lock()
	c.runs = runs
	c.mu.Unlock()
	return nil
}
