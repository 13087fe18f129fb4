package store

import (
	"context"

	"ivytime/site/models"
)

// rangeCounter is the slice of the event log the aggregator needs.
type rangeCounter interface {
	CountInRange(ctx context.Context, pathID, fromExclusive, toInclusive int64) (int64, error)
}

// GraphAggregator reconstructs time-bucketed traffic series from the raw
// event log at read time. Buckets slide with the query instant rather than
// snapping to calendar boundaries.
type GraphAggregator struct {
	events rangeCounter
}

func NewGraphAggregator(events rangeCounter) *GraphAggregator {
	return &GraphAggregator{events: events}
}

// BuildSeries returns exactly bucketCount buckets of width bucketWidthMillis
// covering (now - width*count, now], oldest first. Bucket i counting back
// from now spans (now - width*(i+1), now - width*i]; together with the
// half-open counting interval this partitions the window with no gaps or
// overlaps. Pure read: identical inputs over an unchanged log yield an
// identical series.
func (g *GraphAggregator) BuildSeries(ctx context.Context, pathID, bucketWidthMillis int64, bucketCount int, nowMillis int64) ([]models.GraphBucket, error) {
	series := make([]models.GraphBucket, 0, bucketCount)
	for i := bucketCount - 1; i >= 0; i-- {
		end := nowMillis - bucketWidthMillis*int64(i)
		start := nowMillis - bucketWidthMillis*int64(i+1)
		count, err := g.events.CountInRange(ctx, pathID, start, end)
		if err != nil {
			return nil, err
		}
		series = append(series, models.GraphBucket{
			Count:       count,
			BucketStart: start,
			BucketEnd:   end,
		})
	}
	return series, nil
}

// BuildPresetSeries builds the series for one of the supported bucket-width
// presets, anchored at nowMillis.
func (g *GraphAggregator) BuildPresetSeries(ctx context.Context, pathID int64, preset models.GraphPreset, nowMillis int64) ([]models.GraphBucket, error) {
	return g.BuildSeries(ctx, pathID, preset.BucketWidth.Milliseconds(), preset.BucketCount, nowMillis)
}
