package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ivytime/site/database"
	"ivytime/site/models"
)

// ErrPathNotFound is returned by lookups for a path that was never
// observed.
var ErrPathNotFound = errors.New("path not found")

// PathStore owns the paths relation: one row per distinct path string with
// its aggregate counters. Methods run against whatever DBTX the store was
// bound to, so the same code serves both the transactional ingestion path
// and plain reads.
type PathStore struct {
	q database.DBTX
}

func NewPathStore(q database.DBTX) *PathStore {
	return &PathStore{q: q}
}

// GetOrCreate returns the identity for path, creating the row with zero
// counters on first observation. Race-safe: ON CONFLICT keeps a lost
// create race from erroring the statement (which would abort the
// enclosing ingestion transaction); the loser gets no row back and
// re-reads the winner's, so exactly one row ever exists per path.
func (s *PathStore) GetOrCreate(ctx context.Context, path string) (int64, error) {
	var id int64
	err := s.q.GetContext(ctx, &id, `SELECT path_id FROM paths WHERE path = $1;`, path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up path %q: %w", path, err)
	}

	err = s.q.GetContext(ctx, &id, `
		INSERT INTO paths (path) VALUES ($1)
		ON CONFLICT (path) DO NOTHING
		RETURNING path_id;
	`, path)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		if err = s.q.GetContext(ctx, &id, `SELECT path_id FROM paths WHERE path = $1;`, path); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("failed to create path %q: %w", path, err)
}

// IncrementTotal bumps total_requests for the path by one.
func (s *PathStore) IncrementTotal(ctx context.Context, pathID int64) error {
	if _, err := s.q.ExecContext(ctx, `
		UPDATE paths SET total_requests = total_requests + 1 WHERE path_id = $1;
	`, pathID); err != nil {
		return fmt.Errorf("failed to increment total_requests for path %d: %w", pathID, err)
	}
	return nil
}

// IncrementUnique bumps unique_visitors for the path by one.
func (s *PathStore) IncrementUnique(ctx context.Context, pathID int64) error {
	if _, err := s.q.ExecContext(ctx, `
		UPDATE paths SET unique_visitors = unique_visitors + 1 WHERE path_id = $1;
	`, pathID); err != nil {
		return fmt.Errorf("failed to increment unique_visitors for path %d: %w", pathID, err)
	}
	return nil
}

// GetByPath looks a path up by its string. Returns ErrPathNotFound for
// paths never observed.
func (s *PathStore) GetByPath(ctx context.Context, path string) (*models.Path, error) {
	p := &models.Path{}
	err := s.q.GetContext(ctx, p, `
		SELECT path_id, path, unique_visitors, total_requests
		FROM paths WHERE path = $1;
	`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get path %q: %w", path, err)
	}
	return p, nil
}

// GetByID looks a path up by its integer identity.
func (s *PathStore) GetByID(ctx context.Context, pathID int64) (*models.Path, error) {
	p := &models.Path{}
	err := s.q.GetContext(ctx, p, `
		SELECT path_id, path, unique_visitors, total_requests
		FROM paths WHERE path_id = $1;
	`, pathID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get path %d: %w", pathID, err)
	}
	return p, nil
}

// TopByUniqueVisitors returns the limit paths with the most unique
// visitors, most popular first.
func (s *PathStore) TopByUniqueVisitors(ctx context.Context, limit int) ([]models.Path, error) {
	if limit <= 0 {
		limit = 10
	}
	rows := []models.Path{}
	err := s.q.SelectContext(ctx, &rows, `
		SELECT path_id, path, unique_visitors, total_requests
		FROM paths
		ORDER BY unique_visitors DESC, path_id ASC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top paths: %w", err)
	}
	return rows, nil
}

// ListPage returns one page of paths ordered by total_requests descending,
// plus the total page count. Pages are 1-based.
func (s *PathStore) ListPage(ctx context.Context, pageSize, page int) (*models.PathPage, error) {
	if pageSize <= 0 {
		pageSize = 15
	}
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.q.GetContext(ctx, &total, `SELECT COUNT(*) FROM paths;`); err != nil {
		return nil, fmt.Errorf("failed to count paths: %w", err)
	}

	rows := []models.Path{}
	err := s.q.SelectContext(ctx, &rows, `
		SELECT path_id, path, unique_visitors, total_requests
		FROM paths
		ORDER BY total_requests DESC, path_id ASC
		LIMIT $1 OFFSET $2;
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths page %d: %w", page, err)
	}

	return &models.PathPage{
		Rows:       rows,
		Page:       page,
		TotalPages: PageCount(total, pageSize),
	}, nil
}

// PageCount is ceil(total / pageSize).
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
