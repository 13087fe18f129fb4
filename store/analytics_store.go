package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"ivytime/site/models"
)

// AnalyticsStore is the read-side facade handed to the HTTP handlers:
// counter lookups, listings, and graph series. Reads run without
// transactions; they tolerate an eventually-consistent snapshot of the
// counters and log.
type AnalyticsStore struct {
	paths *PathStore
	graph *GraphAggregator
}

func NewAnalyticsStore(db *sqlx.DB) *AnalyticsStore {
	return &AnalyticsStore{
		paths: NewPathStore(db),
		graph: NewGraphAggregator(NewRequestStore(db)),
	}
}

// PathByPath fetches aggregate counters for one path by its string.
// Returns ErrPathNotFound if the path was never observed.
func (s *AnalyticsStore) PathByPath(ctx context.Context, path string) (*models.Path, error) {
	return s.paths.GetByPath(ctx, path)
}

// PathByID fetches aggregate counters for one path by its identity.
func (s *AnalyticsStore) PathByID(ctx context.Context, pathID int64) (*models.Path, error) {
	return s.paths.GetByID(ctx, pathID)
}

// ListPaths returns one page of paths ordered by total requests descending.
func (s *AnalyticsStore) ListPaths(ctx context.Context, pageSize, page int) (*models.PathPage, error) {
	return s.paths.ListPage(ctx, pageSize, page)
}

// TopPaths returns the limit paths with the most unique visitors.
func (s *AnalyticsStore) TopPaths(ctx context.Context, limit int) ([]models.Path, error) {
	return s.paths.TopByUniqueVisitors(ctx, limit)
}

// Series builds the time-bucketed graph for a path at the given preset,
// anchored at the current instant. The path must exist; unknown paths
// surface ErrPathNotFound rather than an empty graph.
func (s *AnalyticsStore) Series(ctx context.Context, pathID int64, preset models.GraphPreset) ([]models.GraphBucket, error) {
	if _, err := s.paths.GetByID(ctx, pathID); err != nil {
		return nil, err
	}
	return s.graph.BuildPresetSeries(ctx, pathID, preset, time.Now().UnixMilli())
}
