package broadcastify

import (
	"net/url"
	"strings"

	"barchive/pkg/config"
)

// Endpoints builds provider URLs from the configured stems
type Endpoints struct {
	feedStem     string
	archiveStem  string
	downloadStem string
	login        string
}

// NewEndpoints creates Endpoints from configuration
func NewEndpoints(cfg config.BroadcastifyConfig) Endpoints {
	return Endpoints{
		feedStem:     cfg.FeedURL,
		archiveStem:  cfg.ArchiveURL,
		downloadStem: cfg.DownloadURL,
		login:        cfg.LoginURL,
	}
}

// Feed returns the public listen page of a feed, which carries its display name
func (e Endpoints) Feed(feedID string) string {
	return join(e.feedStem, feedID)
}

// Archive returns the archive calendar page of a feed
func (e Endpoints) Archive(feedID string) string {
	return join(e.archiveStem, feedID)
}

// DownloadPage returns the private page that links an entry's media file
func (e Endpoints) DownloadPage(uri string) string {
	return join(e.downloadStem, uri)
}

// Login returns the login form target
func (e Endpoints) Login() string {
	return e.login
}

func join(stem, id string) string {
	return strings.TrimRight(stem, "/") + "/" + url.PathEscape(id)
}

// EntryURI extracts an entry identifier from a download link href,
// e.g. "/archives/download/3321-20240630-0015" yields "3321-20240630-0015".
func EntryURI(href string) string {
	href = strings.TrimSpace(href)
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
