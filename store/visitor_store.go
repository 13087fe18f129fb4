package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ivytime/site/database"
)

// VisitorStore owns the visitors relation: one immutable row per distinct
// hashed client address. Only the digest is ever stored.
type VisitorStore struct {
	q database.DBTX
}

func NewVisitorStore(q database.DBTX) *VisitorStore {
	return &VisitorStore{q: q}
}

// GetOrCreate returns the identity for the given address digest, creating
// a row on first observation. Concurrent first-observations of the same
// digest resolve to one surviving row: ON CONFLICT swallows the losing
// insert without erroring the transaction, and the loser re-reads the
// winner's row.
func (s *VisitorStore) GetOrCreate(ctx context.Context, ipAddressHash []byte) (int64, error) {
	var id int64
	err := s.q.GetContext(ctx, &id, `SELECT visitor_id FROM visitors WHERE ip_address_hash = $1;`, ipAddressHash)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up visitor: %w", err)
	}

	err = s.q.GetContext(ctx, &id, `
		INSERT INTO visitors (ip_address_hash) VALUES ($1)
		ON CONFLICT (ip_address_hash) DO NOTHING
		RETURNING visitor_id;
	`, ipAddressHash)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		if err = s.q.GetContext(ctx, &id, `SELECT visitor_id FROM visitors WHERE ip_address_hash = $1;`, ipAddressHash); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("failed to create visitor: %w", err)
}
