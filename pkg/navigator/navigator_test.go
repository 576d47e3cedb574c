package navigator

import (
	"context"
	"testing"
	"time"

	"barchive/pkg/browser/browsertest"
	"barchive/pkg/config"
	"barchive/pkg/logger"
	"barchive/pkg/models"
	"barchive/pkg/throttle"

	"github.com/stretchr/testify/require"
)

func testBrowserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Headless:       true,
		LoadTimeout:    2 * time.Second,
		RefreshTimeout: 500 * time.Millisecond,
		PollInterval:   2 * time.Millisecond,
	}
}

// firstHalf2024 is an archive from 2024-01-01 to 2024-06-30 with entries
// on the last week of June only
func firstHalf2024() browsertest.Archive {
	a := browsertest.Archive{
		Start: models.NewDate(2024, 1, 1),
		End:   models.NewDate(2024, 6, 30),
		Rows:  map[string][]browsertest.Row{},
	}
	for day := 24; day <= 30; day++ {
		d := models.NewDate(2024, 6, day)
		a.Rows[d.Format(time.DateOnly)] = browsertest.HalfHourRows("3321", d, 3)
	}
	return a
}

func newTestPage(t *testing.T, a browsertest.Archive) (*browsertest.Browser, *Calendar, *TimesTable) {
	t.Helper()
	b := browsertest.New(a)
	require.NoError(t, b.Navigate(context.Background(), "https://example.test/archives/feed/3321"))

	cfg := testBrowserConfig()
	th := throttle.New(config.ThrottleConfig{})
	return b, NewCalendar(b, th, cfg, logger.NewNopLogger()), NewTimesTable(b, cfg, logger.NewNopLogger())
}
