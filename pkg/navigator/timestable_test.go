package navigator

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "barchive/pkg/errors"
	"barchive/pkg/models"
	"barchive/pkg/poll"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimesTableRead(t *testing.T) {
	_, cal, table := newTestPage(t, firstHalf2024())
	ctx := context.Background()
	require.NoError(t, cal.Load(ctx))
	require.NoError(t, table.Load(ctx))

	date := models.NewDate(2024, 6, 30)
	entries, err := table.Read(ctx, date)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, table.HasData())

	assert.Equal(t, "3321-20240630-00", entries[0].URI)
	assert.Equal(t, at(2024, 6, 30, 23, 15), entries[0].Start)
	assert.Equal(t, at(2024, 6, 30, 23, 45), entries[0].End)
	assert.Equal(t, "3321-20240630-02", entries[2].URI)
	assert.Equal(t, "3321-20240630-00", table.LastSeenEntryID())
}

func TestTimesTableRefreshAcrossDates(t *testing.T) {
	b, cal, table := newTestPage(t, firstHalf2024())
	ctx := context.Background()
	_, err := cal.DiscoverRange(ctx)
	require.NoError(t, err)
	require.NoError(t, table.Load(ctx))
	b.SetRenderLag(3)

	_, err = table.Read(ctx, models.NewDate(2024, 6, 30))
	require.NoError(t, err)

	// data to data: the first entry changes
	date := models.NewDate(2024, 6, 27)
	table.BeginRefresh()
	moved, err := cal.GoTo(ctx, date)
	require.NoError(t, err)
	require.True(t, moved)
	require.NoError(t, table.WaitForRefresh(ctx))
	entries, err := table.Read(ctx, date)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "3321-20240627-00", entries[0].URI)

	// data to empty: the first entry disappears
	empty := models.NewDate(2024, 6, 20)
	table.BeginRefresh()
	_, err = cal.GoTo(ctx, empty)
	require.NoError(t, err)
	require.NoError(t, table.WaitForRefresh(ctx))
	entries, err = table.Read(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, table.HasData())
	assert.Equal(t, "", table.LastSeenEntryID())

	// empty to empty: only the observer can tell
	other := models.NewDate(2024, 5, 3)
	table.BeginRefresh()
	_, err = cal.GoTo(ctx, other)
	require.NoError(t, err)
	require.NoError(t, table.WaitForRefresh(ctx))
	entries, err = table.Read(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTimesTableRefreshTimeout(t *testing.T) {
	b, cal, table := newTestPage(t, firstHalf2024())
	ctx := context.Background()
	_, err := cal.DiscoverRange(ctx)
	require.NoError(t, err)
	require.NoError(t, table.Load(ctx))
	_, err = table.Read(ctx, models.NewDate(2024, 6, 30))
	require.NoError(t, err)
	b.FreezeTable()

	table.BeginRefresh()
	_, err = cal.GoTo(ctx, models.NewDate(2024, 6, 28))
	require.NoError(t, err)

	start := time.Now()
	err = table.WaitForRefresh(ctx)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNavigation, errs.TypeOf(err))
	assert.True(t, errors.Is(err, poll.ErrTimeout))
	assert.GreaterOrEqual(t, time.Since(start), testBrowserConfig().RefreshTimeout)
}

func TestTimesTableWaitHonorsCancellation(t *testing.T) {
	b, cal, table := newTestPage(t, firstHalf2024())
	require.NoError(t, cal.Load(context.Background()))
	require.NoError(t, table.Load(context.Background()))
	b.FreezeTable()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := table.WaitForRefresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseEntriesRejectsMalformedRow(t *testing.T) {
	markup := `<table id="archiveTimes"><tbody>
		<tr><td>10:00 AM</td><td>10:30 AM</td><td><a href="/archives/download/a1">Download</a></td></tr>
		<tr><td>10:30 AM</td><td>later</td><td><a href="/archives/download/a2">Download</a></td></tr>
	</tbody></table>`

	_, err := ParseEntries(markup, models.NewDate(2024, 6, 1))
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeRetrieval, errs.TypeOf(err))
}

func TestParseEntriesNoData(t *testing.T) {
	markup := `<table id="archiveTimes"><tbody><tr class="odd"><td colspan="3" class="dataTables_empty">No data available in table</td></tr></tbody></table>`

	entries, err := ParseEntries(markup, models.NewDate(2024, 6, 1))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
