package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivytime/site/models"
	"ivytime/site/utils"
)

// memStore implements the three registries over plain maps so the
// transaction body runs without a database.
type memStore struct {
	pathIDs     map[string]int64
	totals      map[int64]int64
	uniques     map[int64]int64
	visitorIDs  map[string]int64
	events      []memEvent
	nextPath    int64
	nextVisitor int64
	appendErr   error
}

type memEvent struct {
	visitorID int64
	pathID    int64
	userAgent string
	method    uint8
	status    int
	createdAt int64
}

func newMemStore() *memStore {
	return &memStore{
		pathIDs:    map[string]int64{},
		totals:     map[int64]int64{},
		uniques:    map[int64]int64{},
		visitorIDs: map[string]int64{},
	}
}

func (m *memStore) GetOrCreate(_ context.Context, path string) (int64, error) {
	if id, ok := m.pathIDs[path]; ok {
		return id, nil
	}
	m.nextPath++
	m.pathIDs[path] = m.nextPath
	return m.nextPath, nil
}

func (m *memStore) IncrementTotal(_ context.Context, pathID int64) error {
	m.totals[pathID]++
	return nil
}

func (m *memStore) IncrementUnique(_ context.Context, pathID int64) error {
	m.uniques[pathID]++
	return nil
}

// visitorStore view of the same memStore.
type memVisitors struct{ m *memStore }

func (v memVisitors) GetOrCreate(_ context.Context, hash []byte) (int64, error) {
	if id, ok := v.m.visitorIDs[string(hash)]; ok {
		return id, nil
	}
	v.m.nextVisitor++
	v.m.visitorIDs[string(hash)] = v.m.nextVisitor
	return v.m.nextVisitor, nil
}

type memEvents struct{ m *memStore }

func (e memEvents) Append(_ context.Context, visitorID, pathID int64, userAgent string, method uint8, status int, createdAt int64) (int64, error) {
	if e.m.appendErr != nil {
		return 0, e.m.appendErr
	}
	e.m.events = append(e.m.events, memEvent{visitorID, pathID, userAgent, method, status, createdAt})
	return int64(len(e.m.events)), nil
}

func (e memEvents) ExistsPriorEvent(_ context.Context, visitorID, pathID int64) (bool, error) {
	for _, ev := range e.m.events {
		if ev.visitorID == visitorID && ev.pathID == pathID {
			return true, nil
		}
	}
	return false, nil
}

// ingest runs one observation through the transaction body the way
// Pipeline.Ingest does: hash first, normalize the method, then the
// eight-step protocol.
func (m *memStore) ingest(t *testing.T, obs models.Observation) error {
	t.Helper()
	return ingestTx(context.Background(), m, memVisitors{m}, memEvents{m},
		utils.HashIPAddress(obs.RemoteAddr), models.MethodFromText(obs.Method), obs)
}

// checkInvariants recomputes both counters from the event log and compares
// them with the cached values, for every path.
func (m *memStore) checkInvariants(t *testing.T) {
	t.Helper()
	for path, pathID := range m.pathIDs {
		var total int64
		distinct := map[int64]bool{}
		for _, ev := range m.events {
			if ev.pathID == pathID {
				total++
				distinct[ev.visitorID] = true
			}
		}
		require.Equal(t, total, m.totals[pathID], "total_requests for %s", path)
		require.Equal(t, int64(len(distinct)), m.uniques[pathID], "unique_visitors for %s", path)
		require.LessOrEqual(t, m.uniques[pathID], m.totals[pathID], "unique_visitors <= total_requests for %s", path)
	}
}

func obsAt(addr, path, method string, ts int64) models.Observation {
	return models.Observation{
		RemoteAddr: addr,
		Path:       path,
		UserAgent:  "test-agent",
		Method:     method,
		Status:     200,
		ObservedAt: ts,
	}
}

func TestIngestFirstAndRepeatVisit(t *testing.T) {
	t.Parallel()
	m := newMemStore()

	require.NoError(t, m.ingest(t, obsAt("1.2.3.4", "/x", "GET", 1000)))
	require.NoError(t, m.ingest(t, obsAt("1.2.3.4", "/x", "GET", 2000)))
	require.NoError(t, m.ingest(t, obsAt("5.6.7.8", "/x", "GET", 3000)))

	pathID := m.pathIDs["/x"]
	assert.Equal(t, int64(3), m.totals[pathID], "total_requests")
	assert.Equal(t, int64(2), m.uniques[pathID], "unique_visitors")
	m.checkInvariants(t)
}

func TestIngestSameVisitorDifferentPaths(t *testing.T) {
	t.Parallel()
	m := newMemStore()

	// Uniqueness is per (visitor, path) pair: the same visitor is a new
	// unique visitor on every path it reaches for the first time.
	require.NoError(t, m.ingest(t, obsAt("1.2.3.4", "/a", "GET", 1000)))
	require.NoError(t, m.ingest(t, obsAt("1.2.3.4", "/b", "GET", 2000)))
	require.NoError(t, m.ingest(t, obsAt("1.2.3.4", "/a", "GET", 3000)))

	assert.Equal(t, int64(2), m.totals[m.pathIDs["/a"]])
	assert.Equal(t, int64(1), m.uniques[m.pathIDs["/a"]])
	assert.Equal(t, int64(1), m.totals[m.pathIDs["/b"]])
	assert.Equal(t, int64(1), m.uniques[m.pathIDs["/b"]])

	// One visitor row, not three.
	assert.Len(t, m.visitorIDs, 1)
	m.checkInvariants(t)
}

func TestIngestInvariantsAcrossSequence(t *testing.T) {
	t.Parallel()
	m := newMemStore()

	addrs := []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}
	paths := []string{"/", "/about", "/posts/1"}
	ts := int64(0)
	for i := 0; i < 30; i++ {
		ts += 500
		obs := obsAt(addrs[i%len(addrs)], paths[(i/2)%len(paths)], "GET", ts)
		require.NoError(t, m.ingest(t, obs))
		m.checkInvariants(t)
	}
}

func TestIngestUnknownMethodRecordedAsInvalid(t *testing.T) {
	t.Parallel()
	m := newMemStore()

	require.NoError(t, m.ingest(t, obsAt("1.2.3.4", "/x", "FOOBAR", 1000)))

	require.Len(t, m.events, 1)
	assert.Equal(t, models.MethodInvalid.Int(), m.events[0].method)
	assert.Equal(t, int64(1), m.totals[m.pathIDs["/x"]])
}

func TestIngestAppendFailurePropagates(t *testing.T) {
	t.Parallel()
	m := newMemStore()
	m.appendErr = errors.New("storage fault")

	err := m.ingest(t, obsAt("1.2.3.4", "/x", "GET", 1000))
	require.Error(t, err)
	assert.ErrorContains(t, err, "storage fault")
	assert.Empty(t, m.events)
}

func TestIngestHashesBeforeStorage(t *testing.T) {
	t.Parallel()
	m := newMemStore()

	require.NoError(t, m.ingest(t, obsAt("203.0.113.7", "/x", "GET", 1000)))

	// Only the digest reaches the visitor registry.
	for key := range m.visitorIDs {
		assert.NotContains(t, key, "203.0.113.7")
		assert.Len(t, key, 32)
	}
}
