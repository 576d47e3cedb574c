package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"barchive/pkg/models"
	"barchive/pkg/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	SetColors(false)
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })
	return &buf
}

func TestPrinters(t *testing.T) {
	buf := captureOutput(t)

	PrintSuccess("saved %d files", 3)
	PrintError("download failed", errors.New("boom"))
	PrintWarning("clamped to %s", "2024-01-01")
	PrintInfo("Feed", "3321")

	out := buf.String()
	assert.Contains(t, out, "✓ saved 3 files")
	assert.Contains(t, out, "✗ download failed: boom")
	assert.Contains(t, out, "⚠ clamped to 2024-01-01")
	assert.Contains(t, out, "Feed: 3321")
}

func TestRenderEntries(t *testing.T) {
	SetColors(false)
	var buf bytes.Buffer
	end := time.Date(2024, 6, 30, 0, 15, 0, 0, time.UTC)
	entries := []models.Entry{{URI: "3321-abc", Start: end.Add(-30 * time.Minute), End: end}}

	err := RenderEntries(&buf, "3321", entries, func(feedID string, end time.Time) string {
		return feedID + "-" + end.Format("20060102-1504") + ".mp3"
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "3321-abc")
	assert.Contains(t, out, "2024-06-29 23:45")
	assert.Contains(t, out, "3321-20240630-0015.mp3")
}

func TestProgressDisplayVerbose(t *testing.T) {
	SetColors(false)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, true)

	p.DownloadStarted("3321", 2)
	p.EntryFinished(report.Item{URI: "a", File: "a.mp3", Outcome: report.OutcomeDownloaded, Bytes: 2048}, 1, 2)
	p.EntryFinished(report.Item{URI: "b", Outcome: report.OutcomeFailed, Error: "gone"}, 2, 2)
	p.Complete(report.Summary{Downloaded: 1, Failed: 1, Bytes: 2048})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "a.mp3 • 2.0 KB")
	assert.Contains(t, lines[1], "b • gone")
	assert.Contains(t, lines[2], "1 downloaded, 0 already on disk, 1 failed")
}

func TestProgressDisplayLine(t *testing.T) {
	SetColors(false)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, false)

	p.BuildStarted("3321", 4)
	p.DateRead(models.NewDate(2024, 6, 30), 2, 4, 48)

	assert.Contains(t, buf.String(), "3321 build [━━━━━━━━━━──────────] 2/4 • 48 entries")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "3.0 MB", FormatBytes(3*1024*1024))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}
