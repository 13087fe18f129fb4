package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ivytime/site/database"
	"ivytime/site/models"
)

// Ingester records one request observation; satisfied by *store.Pipeline.
type Ingester interface {
	Ingest(ctx context.Context, obs models.Observation) error
}

const (
	ingestTimeout   = 15 * time.Second
	ingestWorkers   = 4
	ingestQueueSize = 256
)

// Analytics observes every completed request and feeds the ingestion
// pipeline. Observations are handed off to a small worker pool on a
// context detached from the request, so a slow or unavailable store can
// neither delay nor fail the response the client already got, and a
// traffic burst cannot pile up unbounded goroutines. When the queue is
// full the observation is dropped; analytics loss never blocks serving.
// Ingestion errors are logged and swallowed.
func Analytics(pipeline Ingester) gin.HandlerFunc {
	queue := make(chan models.Observation, ingestQueueSize)
	for i := 0; i < ingestWorkers; i++ {
		go ingestLoop(pipeline, queue)
	}

	return func(c *gin.Context) {
		c.Next()

		obs := models.Observation{
			RemoteAddr: c.ClientIP(),
			Path:       c.Request.URL.Path,
			UserAgent:  c.Request.UserAgent(),
			Method:     c.Request.Method,
			Status:     c.Writer.Status(),
			ObservedAt: time.Now().UnixMilli(),
		}

		select {
		case queue <- obs:
		default:
			logrus.WithField("path", obs.Path).Warn("Analytics queue full, observation dropped")
		}
	}
}

func ingestLoop(pipeline Ingester, queue <-chan models.Observation) {
	for obs := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		err := pipeline.Ingest(ctx, obs)
		cancel()
		if err != nil {
			if database.IsQueryCanceledError(err) {
				logrus.WithField("path", obs.Path).Debug("Analytics ingestion canceled")
				continue
			}
			logrus.WithError(err).WithField("path", obs.Path).Error("Failed to record analytics observation")
		}
	}
}
