package archive

import (
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/browser"
	"barchive/pkg/config"
	"barchive/pkg/logger"
	"barchive/pkg/metrics"
	"barchive/pkg/report"
	"barchive/pkg/throttle"
)

// Deps are the capabilities an Archive works through. Client and Config
// are required, Opener only for passes that drive the calendar. The rest
// default to no-ops.
type Deps struct {
	Client   *broadcastify.Client
	Opener   browser.Opener
	Throttle *throttle.Throttle
	Config   *config.Config
	Logger   logger.Logger
	Recorder metrics.Recorder
	Observer Observer
}

// Observer follows build and download passes as they progress
type Observer interface {
	BuildStarted(feedID string, dates int)
	DateRead(date time.Time, visited, total, entries int)
	DownloadStarted(feedID string, entries int)
	EntryFinished(item report.Item, done, total int)
}

type nopObserver struct{}

func (nopObserver) BuildStarted(string, int)            {}
func (nopObserver) DateRead(time.Time, int, int, int)   {}
func (nopObserver) DownloadStarted(string, int)         {}
func (nopObserver) EntryFinished(report.Item, int, int) {}

func (d Deps) withDefaults() (Deps, error) {
	if d.Client == nil || d.Config == nil {
		return d, errMissingDeps
	}
	if d.Logger == nil {
		d.Logger = logger.NewNopLogger()
	}
	if d.Throttle == nil {
		d.Throttle = throttle.New(d.Config.Throttle, throttle.WithLogger(d.Logger))
	}
	if d.Recorder == nil {
		d.Recorder = metrics.Nop()
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	return d, nil
}
