package broadcastify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"barchive/pkg/config"
	errs "barchive/pkg/errors"
	"barchive/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// ResponseObserver is told the operation name and status of every response.
// Status 0 means the request failed before a response arrived.
type ResponseObserver func(op string, status int, elapsed time.Duration)

// Client is the provider's HTTP session. Cookies set by Login are kept in
// a jar shared by the www. and m. hosts, so a single Client must be used for
// login and every later download page fetch.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	endpoints  Endpoints
	logger     logger.Logger
	observer   ResponseObserver
	loggedIn   bool
}

// NewClient creates a provider session
func NewClient(cfg config.BroadcastifyConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		endpoints: NewEndpoints(cfg),
		logger:    log,
	}, nil
}

// Endpoints returns the URL builder the client uses
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// SetResponseObserver registers a callback for every completed request
func (c *Client) SetResponseObserver(o ResponseObserver) {
	c.observer = o
}

// LoggedIn reports whether Login succeeded on this session
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.observer != nil {
		c.observer(op, status, elapsed)
	}
	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"op":     op,
			"method": req.Method,
			"url":    req.URL.String(),
			"error":  err.Error(),
		})
		return nil, err
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, elapsed)
	return resp, nil
}

func (c *Client) get(ctx context.Context, rawURL, op string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, op)
}

// document decodes an HTML response body into a goquery document,
// honoring the charset announced by the server
func document(resp *http.Response) (*goquery.Document, error) {
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// FeedName fetches the display name from the feed's listen page
func (c *Client) FeedName(ctx context.Context, feedID string) (string, error) {
	resp, err := c.get(ctx, c.endpoints.Feed(feedID), "feed")
	if err != nil {
		return "", errs.Wrap(errs.New(errs.ErrorTypeConnectivity, "failed to fetch feed page"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.WithCode(errs.ErrorTypeConnectivity, resp.StatusCode, "feed page for %s returned %s", feedID, resp.Status)
	}

	doc, err := document(resp)
	if err != nil {
		return "", errs.Wrap(errs.New(errs.ErrorTypeConnectivity, "unreadable feed page"), err)
	}

	span := doc.Find(SelectorFeedName).First()
	if span.Length() == 0 {
		return "", errs.Wrap(ErrInvalidFeed, fmt.Errorf("feed %q", feedID))
	}
	return strings.TrimSpace(span.Text()), nil
}

// Login posts the account to the login form. The session cookie lands in
// the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username": {username},
		"password": {password},
		"action":   {"auth"},
		"redirect": {"/"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Login(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req, "login")
	if err != nil {
		return errs.Wrap(errs.New(errs.ErrorTypeConnectivity, "login request failed"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.WithCode(errs.ErrorTypeConnectivity, resp.StatusCode, "login returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.New(errs.ErrorTypeConnectivity, "failed to read login response"), err)
	}
	if strings.Contains(string(body), LoginFailedMarker) {
		return ErrCredentialsRejected
	}

	c.loggedIn = true
	c.logger.InfoWithFields("Logged in", map[string]interface{}{"username": username})
	return nil
}

// MediaURL fetches an entry's download page and returns the absolute URL
// of its media file
func (c *Client) MediaURL(ctx context.Context, uri string) (string, error) {
	pageURL := c.endpoints.DownloadPage(uri)

	resp, err := c.get(ctx, pageURL, "download_page")
	if err != nil {
		return "", errs.Wrap(errs.New(errs.ErrorTypeRetrieval, "download page request failed"), err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, "download page"); err != nil {
		return "", err
	}

	doc, err := document(resp)
	if err != nil {
		return "", errs.Wrap(errs.New(errs.ErrorTypeRetrieval, "unreadable download page"), err)
	}

	href, ok := doc.Find(SelectorMediaLink).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		if doc.Find(SelectorSubscriptionWarning).Length() > 0 {
			return "", ErrSubscriptionRequired
		}
		return "", ErrUnexpectedPage
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", errs.Wrap(ErrUnexpectedPage, err)
	}
	return resp.Request.URL.ResolveReference(ref).String(), nil
}

// OpenMedia starts streaming a media file. The caller must close the body.
// The returned length is -1 when the server does not announce it.
func (c *Client) OpenMedia(ctx context.Context, mediaURL string) (io.ReadCloser, int64, error) {
	resp, err := c.get(ctx, mediaURL, "media")
	if err != nil {
		return nil, 0, errs.Wrap(errs.New(errs.ErrorTypeRetrieval, "media request failed"), err)
	}

	if err := statusError(resp, "media file"); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// statusError maps a per-entry response status to an error, nil for 200
func statusError(resp *http.Response, what string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusForbidden:
		return &errs.Error{Type: ErrArchiveGone.Type, Message: ErrArchiveGone.Message, Code: resp.StatusCode}
	default:
		return errs.WithCode(errs.StatusType(resp.StatusCode), resp.StatusCode, "%s returned %s", what, resp.Status)
	}
}
