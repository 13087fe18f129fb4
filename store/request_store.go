package store

import (
	"context"
	"fmt"

	"ivytime/site/database"
)

// RequestStore owns the append-only requests relation, the durable source
// of truth the path counters derive from. Rows are never mutated or
// deleted.
type RequestStore struct {
	q database.DBTX
}

func NewRequestStore(q database.DBTX) *RequestStore {
	return &RequestStore{q: q}
}

// Append durably records one request event and returns its id.
func (s *RequestStore) Append(ctx context.Context, visitorID, pathID int64, userAgent string, method uint8, status int, createdAt int64) (int64, error) {
	var id int64
	err := s.q.GetContext(ctx, &id, `
		INSERT INTO requests (visitor_id, path_id, user_agent, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`, visitorID, pathID, userAgent, method, status, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to append request event: %w", err)
	}
	return id, nil
}

// ExistsPriorEvent reports whether any event is already recorded for this
// (visitor, path) pair. Evaluated inside the ingestion transaction, before
// the append, so the decision sees the log as of transaction start.
func (s *RequestStore) ExistsPriorEvent(ctx context.Context, visitorID, pathID int64) (bool, error) {
	var exists bool
	err := s.q.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM requests WHERE visitor_id = $1 AND path_id = $2
		);
	`, visitorID, pathID)
	if err != nil {
		return false, fmt.Errorf("failed to check prior events for visitor %d path %d: %w", visitorID, pathID, err)
	}
	return exists, nil
}

// CountInRange counts events for a path with created_at in
// (fromExclusive, toInclusive]. Half-open low / closed high keeps adjacent
// graph buckets from overlapping or leaving gaps.
func (s *RequestStore) CountInRange(ctx context.Context, pathID, fromExclusive, toInclusive int64) (int64, error) {
	var count int64
	err := s.q.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM requests
		WHERE path_id = $1 AND created_at > $2 AND created_at <= $3;
	`, pathID, fromExclusive, toInclusive)
	if err != nil {
		return 0, fmt.Errorf("failed to count events for path %d: %w", pathID, err)
	}
	return count, nil
}
