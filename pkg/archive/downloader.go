package archive

import (
	"context"
	"errors"

	"barchive/pkg/auth"
	"barchive/pkg/broadcastify"
	errs "barchive/pkg/errors"
	"barchive/pkg/logger"
	"barchive/pkg/metrics"
	"barchive/pkg/models"
	"barchive/pkg/report"
	"barchive/pkg/storage"
	"barchive/pkg/throttle"
)

// Downloader fetches archive entries over an authenticated session, one
// at a time, pacing page and file requests separately
type Downloader struct {
	client   *broadcastify.Client
	throttle *throttle.Throttle
	logger   logger.Logger
	recorder metrics.Recorder
	observer Observer

	creds    auth.Credentials
	loggedIn bool
}

// NewDownloader prepares a session for creds. Incomplete credentials fail
// here. The login itself is sent once, before the first entry that needs
// the network.
func NewDownloader(client *broadcastify.Client, creds auth.Credentials, deps Deps) (*Downloader, error) {
	if !creds.Complete() {
		return nil, auth.ErrMissingCredentials
	}
	deps.Client = client
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Downloader{
		client:   client,
		throttle: deps.Throttle,
		logger:   deps.Logger,
		recorder: deps.Recorder,
		observer: deps.Observer,
		creds:    creds,
	}, nil
}

// LoggedIn reports whether this downloader has authenticated yet
func (d *Downloader) LoggedIn() bool {
	return d.loggedIn
}

func (d *Downloader) login(ctx context.Context) error {
	if d.loggedIn {
		return nil
	}
	if err := d.client.Login(ctx, d.creds.Username, d.creds.Password); err != nil {
		return err
	}
	d.loggedIn = true
	d.logger.WithField("username", d.creds.Username).Info("Logged in")
	return nil
}

// Fetch downloads entries into outputDir in list order. Entries whose file
// already exists are skipped without any request, so a batch that is
// already on disk never logs in. A failed entry is recorded and the batch
// moves on. A failed login or a canceled context stops it, and the partial
// report is returned with the error.
func (d *Downloader) Fetch(ctx context.Context, feedID string, entries []models.Entry, outputDir string) (*report.Report, error) {
	store, err := storage.NewManager(outputDir)
	if err != nil {
		return nil, errs.Wrap(errs.New(errs.ErrorTypeUsage, "output directory is not usable"), err)
	}

	rep := report.New(feedID, store.Dir())
	defer rep.Finish()

	d.logger.InfoWithFields("Download started", map[string]interface{}{
		"feed_id":    feedID,
		"entries":    len(entries),
		"output_dir": store.Dir(),
		"existing":   store.Count(),
	})
	d.observer.DownloadStarted(feedID, len(entries))

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		name := storage.ArchiveFileName(feedID, entry.End)
		if !store.Exists(name) {
			if err := d.login(ctx); err != nil {
				return rep, err
			}
		}
		outcome, n, err := d.fetchOne(ctx, store, entry, name)
		if err != nil && ctx.Err() != nil {
			return rep, ctx.Err()
		}

		item := rep.Record(entry, name, outcome, n, err)
		logger.LogEntryOutcome(d.logger, entry.URI, name, string(item.Outcome), err)
		d.recorder.RecordOutcome(string(item.Outcome), item.Bytes)
		d.observer.EntryFinished(item, i+1, len(entries))
	}

	d.logger.InfoWithFields("Download finished", map[string]interface{}{
		"feed_id":    feedID,
		"downloaded": rep.Summary.Downloaded,
		"skipped":    rep.Summary.Skipped,
		"failed":     rep.Summary.Failed,
		"bytes":      rep.Summary.Bytes,
	})
	return rep, nil
}

func (d *Downloader) fetchOne(ctx context.Context, store *storage.Manager, entry models.Entry, name string) (report.Outcome, int64, error) {
	if store.Exists(name) {
		d.throttle.MarkFileFetched(false)
		return report.OutcomeSkippedExists, 0, nil
	}

	if err := d.throttle.Wait(ctx, throttle.ClassPage); err != nil {
		return report.OutcomeFailed, 0, err
	}
	mediaURL, err := d.client.MediaURL(ctx, entry.URI)
	if err != nil {
		d.throttle.MarkFileFetched(false)
		return report.OutcomeFailed, 0, err
	}

	if err := d.throttle.Wait(ctx, throttle.ClassFile); err != nil {
		return report.OutcomeFailed, 0, err
	}
	body, _, err := d.client.OpenMedia(ctx, mediaURL)
	if err != nil {
		d.throttle.MarkFileFetched(false)
		return report.OutcomeFailed, 0, err
	}
	defer body.Close()

	n, err := store.Save(body, name)
	if err != nil {
		d.throttle.MarkFileFetched(false)
		return report.OutcomeFailed, 0, saveError(name, err)
	}

	d.throttle.MarkFileFetched(true)
	return report.OutcomeDownloaded, n, nil
}

// saveError classifies a failed write. A body cut off mid-stream is a
// retrieval problem of that entry like any other.
func saveError(name string, err error) error {
	var typed *errs.Error
	if errors.As(err, &typed) {
		return err
	}
	return errs.Wrap(errs.New(errs.ErrorTypeRetrieval, "failed to save %s", name), err)
}
