package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ivytime/site/database"
	"ivytime/site/models"
	"ivytime/site/utils"
)

// The registries the ingestion transaction runs against, kept as small
// interfaces so the transaction body can be exercised without a database.
type pathRegistry interface {
	GetOrCreate(ctx context.Context, path string) (int64, error)
	IncrementTotal(ctx context.Context, pathID int64) error
	IncrementUnique(ctx context.Context, pathID int64) error
}

type visitorRegistry interface {
	GetOrCreate(ctx context.Context, ipAddressHash []byte) (int64, error)
}

type eventLog interface {
	Append(ctx context.Context, visitorID, pathID int64, userAgent string, method uint8, status int, createdAt int64) (int64, error)
	ExistsPriorEvent(ctx context.Context, visitorID, pathID int64) (bool, error)
}

// Pipeline turns one request observation into durable counters. Each
// ingestion runs as a single transaction: path and visitor upserts, the
// uniqueness decision, the counter increments, and the event append all
// commit together or not at all.
type Pipeline struct {
	db *sqlx.DB
}

func NewPipeline(db *sqlx.DB) *Pipeline {
	return &Pipeline{db: db}
}

// Ingest records one observation. A storage fault rolls the whole
// transaction back and is returned to the caller; the serving layer logs
// it and never lets it affect the response already produced.
func (p *Pipeline) Ingest(ctx context.Context, obs models.Observation) error {
	digest := utils.HashIPAddress(obs.RemoteAddr)
	method := models.MethodFromText(obs.Method)

	return database.InTx(ctx, p.db, func(q database.DBTX) error {
		return ingestTx(ctx, NewPathStore(q), NewVisitorStore(q), NewRequestStore(q), digest, method, obs)
	})
}

// ingestTx is the transaction body. The prior-event check must run before
// the append so it observes the log without the event being inserted;
// whether the total increment happens before or after the check is
// immaterial, but the order is fixed for determinism.
func ingestTx(ctx context.Context, paths pathRegistry, visitors visitorRegistry, events eventLog, digest []byte, method models.Method, obs models.Observation) error {
	pathID, err := paths.GetOrCreate(ctx, obs.Path)
	if err != nil {
		return err
	}
	if err := paths.IncrementTotal(ctx, pathID); err != nil {
		return err
	}

	visitorID, err := visitors.GetOrCreate(ctx, digest)
	if err != nil {
		return err
	}

	seen, err := events.ExistsPriorEvent(ctx, visitorID, pathID)
	if err != nil {
		return err
	}
	if !seen {
		if err := paths.IncrementUnique(ctx, pathID); err != nil {
			return err
		}
	}

	_, err = events.Append(ctx, visitorID, pathID, obs.UserAgent, method.Int(), obs.Status, obs.ObservedAt)
	return err
}
