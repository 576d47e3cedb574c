package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barchive/pkg/auth"
	"barchive/pkg/broadcastify"
	errs "barchive/pkg/errors"
	"barchive/pkg/manifest"
	"barchive/pkg/models"
	"barchive/pkg/navigator"
	"barchive/pkg/report"
)

var (
	// ErrAlreadyBuilt means Build would discard existing entries
	ErrAlreadyBuilt = errs.New(errs.ErrorTypeAlreadyBuilt, "archive already has entries, rebuild to replace them")

	// ErrEmptyWindow means Download was given no bounds and not told to take everything
	ErrEmptyWindow = errs.New(errs.ErrorTypeUsage, "download window needs a start, an end or all")

	errMissingDeps = errs.New(errs.ErrorTypeUsage, "archive needs a client and a config")
	errNoBrowser   = errs.New(errs.ErrorTypeUsage, "archive needs a browser to navigate the calendar")
	errNoFeed      = errs.New(errs.ErrorTypeUsage, "feed id is required")
	errNoManifest  = errs.New(errs.ErrorTypeUsage, "no build to restore")
)

// Archive is one feed's archive: its identity, its navigable range and
// the entries found by the last build
type Archive struct {
	deps Deps

	feedID   string
	feedName string

	rng           models.DateRange
	entries       []models.Entry
	chronological bool

	creds auth.Credentials
}

// Open looks up the feed's name and discovers its archive range
func Open(ctx context.Context, feedID string, deps Deps) (*Archive, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	feedID = strings.TrimSpace(feedID)
	if feedID == "" {
		return nil, errNoFeed
	}

	log := deps.Logger.WithField("feed_id", feedID)

	name, err := deps.Client.FeedName(ctx, feedID)
	if err != nil {
		return nil, err
	}
	log.WithField("feed_name", name).Info("Feed found")

	a := &Archive{deps: deps, feedID: feedID, feedName: name}

	err = a.withSession(ctx, func(cal *navigator.Calendar, _ *navigator.TimesTable) error {
		rng, err := cal.DiscoverRange(ctx)
		if err != nil {
			return err
		}
		a.rng = rng
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("range", a.rng.String()).Info("Archive opened")
	return a, nil
}

// Restore rebuilds an archive from a persisted build without touching the
// network. Range and entries come back together.
func Restore(m *manifest.Manifest, deps Deps) (*Archive, error) {
	if m == nil {
		return nil, errNoManifest
	}
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Archive{
		deps:          deps,
		feedID:        m.FeedID,
		feedName:      m.FeedName,
		rng:           m.Range,
		entries:       append([]models.Entry(nil), m.Entries...),
		chronological: m.Chronological,
	}, nil
}

// Reinitialize opens feedID from scratch with the same deps and
// credentials. The receiver is left as it was.
func (a *Archive) Reinitialize(ctx context.Context, feedID string) (*Archive, error) {
	fresh, err := Open(ctx, feedID, a.deps)
	if err != nil {
		return nil, err
	}
	fresh.creds = a.creds
	return fresh, nil
}

// withSession runs fn against a browser pointed at the archive page. The
// browser is closed however fn returns.
func (a *Archive) withSession(ctx context.Context, fn func(*navigator.Calendar, *navigator.TimesTable) error) error {
	if a.deps.Opener == nil {
		return errNoBrowser
	}
	b, err := a.deps.Opener.Open(ctx)
	if err != nil {
		return errs.Wrap(errs.New(errs.ErrorTypeNavigation, "failed to start browser"), err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			a.deps.Logger.WithError(err).Warn("Failed to close browser")
		}
	}()

	if err := b.Navigate(ctx, a.ArchiveURL()); err != nil {
		return errs.Wrap(errs.New(errs.ErrorTypeNavigation, "failed to load archive page"), err)
	}

	cfg := a.deps.Config.Browser
	cal := navigator.NewCalendar(b, a.deps.Throttle, cfg, a.deps.Logger)
	table := navigator.NewTimesTable(b, cfg, a.deps.Logger)
	return fn(cal, table)
}

// FeedID returns the feed identifier
func (a *Archive) FeedID() string { return a.feedID }

// FeedName returns the feed's display name
func (a *Archive) FeedName() string { return a.feedName }

// FeedURL returns the feed's public page
func (a *Archive) FeedURL() string { return a.endpoints().Feed(a.feedID) }

// ArchiveURL returns the feed's archive calendar page
func (a *Archive) ArchiveURL() string { return a.endpoints().Archive(a.feedID) }

func (a *Archive) endpoints() broadcastify.Endpoints { return a.deps.Client.Endpoints() }

// DateRange returns the navigable range found when the archive was opened
func (a *Archive) DateRange() models.DateRange { return a.rng }

// Chronological reports whether the last build visited dates oldest first
func (a *Archive) Chronological() bool { return a.chronological }

// Entries returns a copy of the entries found by the last build
func (a *Archive) Entries() []models.Entry {
	return append([]models.Entry(nil), a.entries...)
}

// EarliestEntry returns the earliest entry start, zero when there are no entries
func (a *Archive) EarliestEntry() time.Time {
	var earliest time.Time
	for _, e := range a.entries {
		if earliest.IsZero() || e.Start.Before(earliest) {
			earliest = e.Start
		}
	}
	return earliest
}

// LatestEntry returns the latest entry end, zero when there are no entries
func (a *Archive) LatestEntry() time.Time {
	var latest time.Time
	for _, e := range a.entries {
		if e.End.After(latest) {
			latest = e.End
		}
	}
	return latest
}

// SetCredentials sets the provider account used by Download
func (a *Archive) SetCredentials(username, password string) {
	a.creds = auth.Credentials{Username: username, Password: password}
}

// HasCredentials reports whether both username and password are set
func (a *Archive) HasCredentials() bool {
	return a.creds.Complete()
}

// Manifest snapshots the archive for persistence
func (a *Archive) Manifest() *manifest.Manifest {
	m := manifest.New(a.feedID, a.feedName, a.rng, a.Entries())
	m.Chronological = a.chronological
	return m
}

// Select returns the entries that lie within w, in build order
func (a *Archive) Select(w DownloadWindow) []models.Entry {
	var selected []models.Entry
	for _, e := range a.entries {
		if w.contains(e) {
			selected = append(selected, e)
		}
	}
	return selected
}

// Download fetches the entries within w into outputDir
func (a *Archive) Download(ctx context.Context, w DownloadWindow, outputDir string) (*report.Report, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	dl, err := NewDownloader(a.deps.Client, a.creds, a.deps)
	if err != nil {
		return nil, err
	}
	return dl.Fetch(ctx, a.feedID, a.Select(w), outputDir)
}

// String summarizes the archive. The password is never shown.
func (a *Archive) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Feed:        %s (%s)\n", a.feedID, a.feedName)
	fmt.Fprintf(&sb, "Feed URL:    %s\n", a.FeedURL())
	fmt.Fprintf(&sb, "Archive URL: %s\n", a.ArchiveURL())
	fmt.Fprintf(&sb, "Range:       %s\n", a.rng)

	user := a.creds.Username
	if user == "" {
		user = "(none)"
	}
	password := "not set"
	if a.creds.Password != "" {
		password = "set"
	}
	fmt.Fprintf(&sb, "Username:    %s\n", user)
	fmt.Fprintf(&sb, "Password:    %s\n", password)

	if len(a.entries) == 0 {
		sb.WriteString("Entries:     0")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Entries:     %d (%s to %s)", len(a.entries),
		a.EarliestEntry().Format("2006-01-02 15:04"), a.LatestEntry().Format("2006-01-02 15:04"))
	return sb.String()
}

// DownloadWindow selects entries by time. An entry is selected when it
// starts at or after Start and ends at or before End. A zero bound is open.
type DownloadWindow struct {
	Start time.Time
	End   time.Time
	All   bool
}

func (w DownloadWindow) validate() error {
	if !w.All && w.Start.IsZero() && w.End.IsZero() {
		return ErrEmptyWindow
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return errs.New(errs.ErrorTypeUsage, "download window starts after it ends")
	}
	return nil
}

func (w DownloadWindow) contains(e models.Entry) bool {
	if w.All {
		return true
	}
	if !w.Start.IsZero() && e.Start.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && e.End.After(w.End) {
		return false
	}
	return true
}
