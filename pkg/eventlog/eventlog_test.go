package eventlog_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/facet/pkg/eventlog"
)

type captureLogger struct {
	mu     sync.Mutex
	events []eventlog.Event
}

func (c *captureLogger) Log(e eventlog.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ev := eventlog.NewCylinderFound("run-1", "mesh-1", "cy-0011223344556677", 32, 2.0, 5.0, 0.98)

	data, err := eventlog.EncodeEvent(ev)
	require.NoError(t, err)

	got, err := eventlog.DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, ev.RunID, got.RunID)
	assert.Equal(t, ev.MeshID, got.MeshID)
	assert.Equal(t, eventlog.StageDetect, got.Stage)
	assert.Equal(t, eventlog.CategoryFeature, got.Category)
	require.NotNil(t, got.Cylinder)
	assert.Equal(t, "cy-0011223344556677", got.Cylinder.FeatureID)
	assert.Equal(t, 32, got.Cylinder.Triangles)
	assert.InDelta(t, 2.0, got.Cylinder.Radius, 1e-12)
	assert.InDelta(t, 0.98, got.Cylinder.Confidence, 1e-12)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp), "timestamp lost precision")
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	fl, err := eventlog.NewFileLogger(path)
	require.NoError(t, err)

	fl.Log(eventlog.NewRunStarted("run-1", "mesh-1", 100, 2))
	fl.Log(eventlog.NewPlaneFound("run-1", "mesh-1", "pl-aa", 40, 12.5))
	fl.Log(eventlog.NewRunCompleted("run-1", "mesh-1", 1, 0, 40, 25*time.Millisecond))
	require.NoError(t, fl.Close())

	// Unfiltered replay sees everything in order.
	r, err := eventlog.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var all []eventlog.Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		all = append(all, ev)
	}
	require.Len(t, all, 3)
	assert.Equal(t, eventlog.CategoryRun, all[0].Category)
	assert.Equal(t, eventlog.CategoryFeature, all[1].Category)

	// Filtered replay keeps only features.
	cat := eventlog.CategoryFeature
	fr, err := eventlog.NewFilteredReader(path, eventlog.Filter{Category: &cat})
	require.NoError(t, err)
	defer fr.Close()

	ev, err := fr.Next()
	require.NoError(t, err)
	require.NotNil(t, ev.Plane)
	assert.Equal(t, "pl-aa", ev.Plane.FeatureID)

	_, err = fr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileLoggerCloseDiscipline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	fl, err := eventlog.NewFileLogger(path)
	require.NoError(t, err)

	fl.Log(eventlog.NewCacheEvent("mesh-1", eventlog.CacheRegister, 1))
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close(), "second Close must be a no-op")

	// Ignored, not a panic.
	fl.Log(eventlog.NewCacheEvent("mesh-1", eventlog.CacheHit, 1))

	r, err := eventlog.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count, "event logged after Close leaked into the file")
}

func TestMultiLogger(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}

	ml := eventlog.NewMultiLogger(a, nil, b)
	ml.Log(eventlog.NewCacheEvent("mesh-9", eventlog.CacheEvict, 3))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, eventlog.CacheEvict, a.events[0].Cache.Op)
}

func TestNoopLogger(t *testing.T) {
	var l eventlog.NoopLogger
	l.Log(eventlog.Event{}) // must not panic
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := eventlog.NewSlogAdapter(slog.New(h))

	adapter.Log(eventlog.NewComponentRejected("run-2", "mesh-2", eventlog.RejectTilted, 12, 0.5, 0.149))

	out := buf.String()
	assert.Contains(t, out, "TILTED")
	assert.Contains(t, out, "mesh-2")
	assert.Contains(t, out, "DETECT")
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "POOL", eventlog.StagePool.String())
	assert.Equal(t, "REJECT", eventlog.CategoryReject.String())
	assert.Equal(t, "RADIUS_SPREAD", eventlog.RejectRadiusSpread.String())
	assert.Equal(t, "EVICT", eventlog.CacheEvict.String())
	assert.Equal(t, "UNKNOWN", eventlog.Stage(99).String())
}
