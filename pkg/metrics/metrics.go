// Package metrics counts what a run did with Prometheus collectors. barchive
// is a batch tool, so instead of serving /metrics the registry is written to
// a node-exporter textfile when a run ends.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is what the archive and its HTTP session report into
type Recorder interface {
	RecordResponse(op string, statusCode int, elapsed time.Duration)
	RecordThrottleWait(class string, wait time.Duration)
	RecordDateVisited(entries int)
	RecordOutcome(outcome string, bytes int64)
}

// Collector is the Prometheus Recorder
type Collector struct {
	responses    *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	throttleWait *prometheus.CounterVec
	datesVisited prometheus.Counter
	entriesFound prometheus.Counter
	outcomes     *prometheus.CounterVec
	bytes        prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barchive_http_responses_total",
			Help: "Provider HTTP responses by operation and status code, 0 for transport failures",
		}, []string{"op", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barchive_http_request_duration_seconds",
			Help:    "Provider HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		throttleWait: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barchive_throttle_wait_seconds_total",
			Help: "Time spent waiting on the request throttle by class",
		}, []string{"class"}),
		datesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barchive_dates_visited_total",
			Help: "Calendar dates read during build passes",
		}),
		entriesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barchive_entries_discovered_total",
			Help: "Archive entries read from the entries table",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barchive_entries_total",
			Help: "Download outcomes by kind",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barchive_downloaded_bytes_total",
			Help: "Bytes written to archive files",
		}),
	}

	reg.MustRegister(
		c.responses,
		c.latency,
		c.throttleWait,
		c.datesVisited,
		c.entriesFound,
		c.outcomes,
		c.bytes,
	)
	return c
}

func (c *Collector) RecordResponse(op string, statusCode int, elapsed time.Duration) {
	c.responses.WithLabelValues(op, strconv.Itoa(statusCode)).Inc()
	c.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) RecordThrottleWait(class string, wait time.Duration) {
	c.throttleWait.WithLabelValues(class).Add(wait.Seconds())
}

func (c *Collector) RecordDateVisited(entries int) {
	c.datesVisited.Inc()
	c.entriesFound.Add(float64(entries))
}

func (c *Collector) RecordOutcome(outcome string, bytes int64) {
	c.outcomes.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		c.bytes.Add(float64(bytes))
	}
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, replacing the file atomically
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

type nop struct{}

func (nop) RecordResponse(string, int, time.Duration) {}
func (nop) RecordThrottleWait(string, time.Duration)  {}
func (nop) RecordDateVisited(int)                     {}
func (nop) RecordOutcome(string, int64)               {}

// Nop returns a Recorder that discards everything
func Nop() Recorder {
	return nop{}
}
