package main

import (
	"fmt"
	"time"

	"barchive/pkg/archive"
	"barchive/pkg/broadcastify"
	"barchive/pkg/browser"
	"barchive/pkg/config"
	"barchive/pkg/logger"
	"barchive/pkg/manifest"
	"barchive/pkg/metrics"
	"barchive/pkg/throttle"
	"barchive/pkg/ui"

	"github.com/prometheus/client_golang/prometheus"
)

// app is what every archive command needs: configuration, logging, the
// provider session, pacing, metrics and persisted builds
type app struct {
	cfg       *config.Config
	log       logger.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Collector
	client    *broadcastify.Client
	throttle  *throttle.Throttle
	manifests *manifest.Manager
	progress  *ui.ProgressDisplay
}

// newApp loads configuration with flags taking precedence, then wires
// everything together. Nothing touches the network yet.
func newApp(flags map[string]interface{}) (*app, error) {
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFormat != "" {
		flags["log-format"] = logFormat
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("barchive starting")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	client, err := broadcastify.NewClient(cfg.Broadcastify, log)
	if err != nil {
		return nil, err
	}
	client.SetResponseObserver(collector.RecordResponse)

	th := throttle.New(cfg.Throttle,
		throttle.WithLogger(log),
		throttle.WithObserver(func(class throttle.Class, wait time.Duration) {
			collector.RecordThrottleWait(string(class), wait)
		}),
	)

	manifests, err := manifest.NewManager(cfg.Build.ManifestDirectory)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		registry:  registry,
		metrics:   collector,
		client:    client,
		throttle:  th,
		manifests: manifests,
	}
	if !quiet {
		a.progress = ui.NewProgressDisplay(nil, verbose)
	}
	return a, nil
}

func (a *app) deps() archive.Deps {
	deps := archive.Deps{
		Client: a.client,
		Opener: browser.ChromeOpener{
			Config:    a.cfg.Browser,
			UserAgent: a.cfg.Broadcastify.UserAgent,
			Logger:    a.log,
		},
		Throttle: a.throttle,
		Config:   a.cfg,
		Logger:   a.log,
		Recorder: a.metrics,
	}
	if a.progress != nil {
		deps.Observer = a.progress
	}
	return deps
}

// restore loads the persisted build of feedID
func (a *app) restore(feedID string) (*archive.Archive, error) {
	m, err := a.manifests.Load(feedID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("feed %s has not been built yet, run 'barchive build %s' first", feedID, feedID)
	}
	return archive.Restore(m, a.deps())
}

// writeMetrics exports the run's metrics when a textfile path is configured
func (a *app) writeMetrics() {
	path := a.cfg.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, a.registry); err != nil {
		a.log.WithError(err).WithField("path", path).Warn("Failed to write metrics")
		return
	}
	a.log.WithField("path", path).Debug("Metrics written")
}
