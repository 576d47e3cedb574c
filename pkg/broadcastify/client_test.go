package broadcastify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barchive/pkg/broadcastify/broadcastifytest"
	errs "barchive/pkg/errors"
	"barchive/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *broadcastifytest.Server) {
	t.Helper()
	srv := broadcastifytest.NewServer("scanner", "s3cret")
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.Config(), logger.NewNopLogger())
	require.NoError(t, err)
	return client, srv
}

func TestFeedName(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddFeed("3321", "Metro Fire Dispatch")

	name, err := client.FeedName(context.Background(), "3321")
	require.NoError(t, err)
	assert.Equal(t, "Metro Fire Dispatch", name)
}

func TestFeedNameUnknownFeed(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.FeedName(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFeed))
	assert.Equal(t, errs.ErrorTypeUsage, errs.TypeOf(err))
}

func TestFeedNameServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	base := broadcastifytest.NewServer("", "")
	defer base.Close()
	cfg := base.Config()
	cfg.FeedURL = srv.URL + "/listen/feed/"
	client, err := NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	_, err = client.FeedName(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeConnectivity, errs.TypeOf(err))

	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadGateway, e.Code)
}

func TestLogin(t *testing.T) {
	client, srv := newTestClient(t)

	require.NoError(t, client.Login(context.Background(), "scanner", "s3cret"))
	assert.True(t, client.LoggedIn())
	assert.Equal(t, 1, srv.Requests(broadcastifytest.KindLogin))
}

func TestLoginRejected(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.Login(context.Background(), "scanner", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentialsRejected))
	assert.False(t, client.LoggedIn())
}

func TestLoginConnectivityError(t *testing.T) {
	srv := broadcastifytest.NewServer("a", "b")
	cfg := srv.Config()
	srv.Close()

	client, err := NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	err = client.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeConnectivity, errs.TypeOf(err))
}

func TestMediaURLAfterLogin(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddEntry("3321-1719706500", []byte("ID3audio"))
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, "scanner", "s3cret"))

	mediaURL, err := client.MediaURL(ctx, "3321-1719706500")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/3321-1719706500.mp3", mediaURL)

	body, size, err := client.OpenMedia(ctx, mediaURL)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "ID3audio", string(data))
	assert.Equal(t, int64(8), size)
}

func TestMediaURLWithoutSessionIsSubscriptionError(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddEntry("42", []byte("x"))

	_, err := client.MediaURL(context.Background(), "42")
	assert.True(t, errors.Is(err, ErrSubscriptionRequired))
	assert.True(t, errs.IsPerItem(errs.TypeOf(err)))
}

func TestMediaURLUnexpectedPage(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddEntry("42", []byte("x"))
	srv.SetBrokenPage("42")
	ctx := context.Background()
	require.NoError(t, client.Login(ctx, "scanner", "s3cret"))

	_, err := client.MediaURL(ctx, "42")
	assert.True(t, errors.Is(err, ErrUnexpectedPage))
	assert.False(t, errors.Is(err, ErrSubscriptionRequired))
}

func TestPerEntryStatusErrors(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddEntry("gone", []byte("x"))
	srv.AddEntry("flaky", []byte("x"))
	srv.AddEntry("media-gone", []byte("x"))
	srv.SetPageStatus("gone", http.StatusForbidden)
	srv.SetPageStatus("flaky", http.StatusServiceUnavailable)
	srv.SetMediaStatus("media-gone", http.StatusForbidden)
	ctx := context.Background()
	require.NoError(t, client.Login(ctx, "scanner", "s3cret"))

	_, err := client.MediaURL(ctx, "gone")
	assert.True(t, errors.Is(err, ErrArchiveGone))

	_, err = client.MediaURL(ctx, "flaky")
	assert.Equal(t, errs.ErrorTypeRetrieval, errs.TypeOf(err))

	mediaURL, err := client.MediaURL(ctx, "media-gone")
	require.NoError(t, err)
	_, _, err = client.OpenMedia(ctx, mediaURL)
	assert.True(t, errors.Is(err, ErrArchiveGone))
}

func TestResponseObserver(t *testing.T) {
	client, srv := newTestClient(t)
	srv.AddFeed("1", "One")

	var ops []string
	var statuses []int
	client.SetResponseObserver(func(op string, status int, _ time.Duration) {
		ops = append(ops, op)
		statuses = append(statuses, status)
	})

	_, err := client.FeedName(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"feed"}, ops)
	assert.Equal(t, []int{http.StatusOK}, statuses)
}
