package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordResponse(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordResponse("media", 200, 120*time.Millisecond)
	c.RecordResponse("media", 200, 80*time.Millisecond)
	c.RecordResponse("media", 403, 10*time.Millisecond)
	c.RecordResponse("download_page", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.responses.WithLabelValues("media", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.responses.WithLabelValues("media", "403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.responses.WithLabelValues("download_page", "0")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.latency))
}

func TestRecordOutcomeAndDates(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOutcome("downloaded", 2048)
	c.RecordOutcome("skipped_exists", 0)
	c.RecordOutcome("failed", 0)
	c.RecordDateVisited(48)
	c.RecordDateVisited(0)
	c.RecordThrottleWait("page", 1500*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.outcomes.WithLabelValues("downloaded")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(c.bytes))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.datesVisited))
	assert.Equal(t, 48.0, testutil.ToFloat64(c.entriesFound))
	assert.InDelta(t, 1.5, testutil.ToFloat64(c.throttleWait.WithLabelValues("page")), 1e-9)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordOutcome("downloaded", 10)

	path := filepath.Join(t.TempDir(), "barchive.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `barchive_entries_total{outcome="downloaded"} 1`))
}

func TestNopRecorder(t *testing.T) {
	r := Nop()
	r.RecordResponse("feed", 200, time.Millisecond)
	r.RecordOutcome("failed", 0)
}
