package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivytime/site/models"
)

// memCounter counts fixed event timestamps with the same (from, to]
// interval convention as the real event log.
type memCounter struct {
	timestamps []int64
	err        error
}

func (m *memCounter) CountInRange(_ context.Context, _ int64, fromExclusive, toInclusive int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, ts := range m.timestamps {
		if ts > fromExclusive && ts <= toInclusive {
			n++
		}
	}
	return n, nil
}

func TestBuildSeriesPartitionsWindow(t *testing.T) {
	t.Parallel()

	counter := &memCounter{timestamps: []int64{1, 50, 100, 101, 150, 200, 250, 300, 999, 1000}}
	g := NewGraphAggregator(counter)

	const (
		now    = int64(1000)
		width  = int64(100)
		nBucks = 10
	)
	series, err := g.BuildSeries(context.Background(), 1, width, nBucks, now)
	require.NoError(t, err)
	require.Len(t, series, nBucks)

	// Oldest first, contiguous, no gaps or overlaps, covering
	// (now - width*count, now].
	assert.Equal(t, now-width*int64(nBucks), series[0].BucketStart)
	assert.Equal(t, now, series[nBucks-1].BucketEnd)
	for i, b := range series {
		assert.Equal(t, b.BucketStart+width, b.BucketEnd, "bucket %d width", i)
		if i > 0 {
			assert.Equal(t, series[i-1].BucketEnd, b.BucketStart, "bucket %d contiguity", i)
		}
	}

	// Sum of bucket counts equals one count over the whole window. The
	// timestamp at exactly now-width*count (none here) would be excluded,
	// the one at exactly now included.
	var sum int64
	for _, b := range series {
		sum += b.Count
	}
	whole, err := counter.CountInRange(context.Background(), 1, now-width*int64(nBucks), now)
	require.NoError(t, err)
	assert.Equal(t, whole, sum)
}

func TestBuildSeriesBoundaryConvention(t *testing.T) {
	t.Parallel()

	// Events exactly on bucket edges land in the bucket that ends there,
	// never in the one that starts there.
	counter := &memCounter{timestamps: []int64{100, 200}}
	g := NewGraphAggregator(counter)

	series, err := g.BuildSeries(context.Background(), 1, 100, 2, 200)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, int64(1), series[0].Count, "(0,100] holds ts=100")
	assert.Equal(t, int64(1), series[1].Count, "(100,200] holds ts=200")
}

func TestBuildSeriesIdempotent(t *testing.T) {
	t.Parallel()

	counter := &memCounter{timestamps: []int64{10, 20, 30, 40, 50}}
	g := NewGraphAggregator(counter)

	first, err := g.BuildSeries(context.Background(), 1, 10, 5, 50)
	require.NoError(t, err)
	second, err := g.BuildSeries(context.Background(), 1, 10, 5, 50)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildSeriesPropagatesErrors(t *testing.T) {
	t.Parallel()

	counter := &memCounter{err: errors.New("storage fault")}
	g := NewGraphAggregator(counter)

	_, err := g.BuildSeries(context.Background(), 1, 100, 5, 1000)
	require.Error(t, err)
	assert.ErrorContains(t, err, "storage fault")
}

func TestBuildPresetSeries(t *testing.T) {
	t.Parallel()

	counter := &memCounter{}
	g := NewGraphAggregator(counter)

	for _, preset := range models.GraphPresets {
		series, err := g.BuildPresetSeries(context.Background(), 1, preset, 1_000_000_000)
		require.NoError(t, err)
		require.Len(t, series, preset.BucketCount, preset.Name)
		width := preset.BucketWidth.Milliseconds()
		for _, b := range series {
			assert.Equal(t, width, b.BucketEnd-b.BucketStart, preset.Name)
		}
	}
}
