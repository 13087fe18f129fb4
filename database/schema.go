package database

import (
	"context"
	"fmt"
)

// schemaDDL defines the three analytics relations. The requests table is
// append-only and is the source of truth; the counters on paths are caches
// derived from it. created_at is epoch milliseconds so bucket arithmetic
// stays integer-exact.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS paths (
	path_id         BIGSERIAL PRIMARY KEY,
	path            TEXT NOT NULL,
	unique_visitors BIGINT NOT NULL DEFAULT 0,
	total_requests  BIGINT NOT NULL DEFAULT 0,
	CONSTRAINT paths_path_key UNIQUE (path)
);

CREATE TABLE IF NOT EXISTS visitors (
	visitor_id      BIGSERIAL PRIMARY KEY,
	ip_address_hash BYTEA NOT NULL,
	CONSTRAINT visitors_ip_address_hash_key UNIQUE (ip_address_hash)
);

CREATE TABLE IF NOT EXISTS requests (
	id         BIGSERIAL PRIMARY KEY,
	visitor_id BIGINT NOT NULL REFERENCES visitors (visitor_id),
	path_id    BIGINT NOT NULL REFERENCES paths (path_id),
	user_agent TEXT NOT NULL DEFAULT '',
	method     SMALLINT NOT NULL,
	status     SMALLINT NOT NULL,
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_visitor_path ON requests (visitor_id, path_id);
CREATE INDEX IF NOT EXISTS idx_requests_path_created ON requests (path_id, created_at);
`

// Unique constraint names referenced by the stores when resolving
// create-if-absent races.
const (
	ConstraintPathsPathKey          = "paths_path_key"
	ConstraintVisitorsIPAddressHash = "visitors_ip_address_hash_key"
)

// EnsureSchema creates the analytics tables and indexes if they do not
// already exist. Safe to run on every startup.
func (c *DBClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to apply analytics schema: %w", err)
	}
	return nil
}
