package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"barchive/pkg/report"
)

// ProgressDisplay is a one-line progress readout for build and download
// passes. In verbose mode it prints one line per event instead.
type ProgressDisplay struct {
	mu  sync.Mutex
	out io.Writer

	feedID    string
	phase     string
	total     int
	done      int
	found     int
	bytes     int64
	failed    int
	startTime time.Time
	verbose   bool
}

// NewProgressDisplay creates a display writing to w, Output when nil
func NewProgressDisplay(w io.Writer, verbose bool) *ProgressDisplay {
	if w == nil {
		w = Output
	}
	return &ProgressDisplay{out: w, verbose: verbose}
}

func (p *ProgressDisplay) reset(feedID, phase string, total int) {
	p.feedID = feedID
	p.phase = phase
	p.total = total
	p.done = 0
	p.found = 0
	p.bytes = 0
	p.failed = 0
	p.startTime = time.Now()
}

// BuildStarted begins a build pass over dates calendar days
func (p *ProgressDisplay) BuildStarted(feedID string, dates int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset(feedID, "build", dates)
}

// DateRead records one visited calendar day
func (p *ProgressDisplay) DateRead(date time.Time, visited, total, entries int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = visited
	p.total = total
	p.found += entries

	if p.verbose {
		fmt.Fprintf(p.out, "%s %s • %d entries\n", Magenta("→"), date.Format(time.DateOnly), entries)
		return
	}
	p.printLine(fmt.Sprintf("%d entries", p.found))
}

// DownloadStarted begins a download pass over entries archive entries
func (p *ProgressDisplay) DownloadStarted(feedID string, entries int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset(feedID, "download", entries)
}

// EntryFinished records the outcome of one entry
func (p *ProgressDisplay) EntryFinished(item report.Item, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total
	p.bytes += item.Bytes
	if item.Outcome == report.OutcomeFailed {
		p.failed++
	}

	if p.verbose {
		switch item.Outcome {
		case report.OutcomeDownloaded:
			fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), item.File, FormatBytes(item.Bytes))
		case report.OutcomeSkippedExists:
			fmt.Fprintf(p.out, "%s %s • %s\n", Dim("="), item.File, Dim("already on disk"))
		default:
			fmt.Fprintf(p.out, "%s %s • %s\n", Red("✗"), item.URI, item.Error)
		}
		return
	}
	p.printLine(FormatBytes(p.bytes))
}

// printLine redraws the progress line in place
func (p *ProgressDisplay) printLine(detail string) {
	barWidth := 20
	filled := 0
	if p.total > 0 {
		filled = p.done * barWidth / p.total
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s %s [%s] %d/%d • %s • %s",
		Cyan(p.feedID), p.phase, bar, p.done, p.total, detail, p.eta())
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.failed))
	}
	fmt.Fprintf(p.out, "\r\033[K%s", line)
}

// Complete ends the pass with a summary line
func (p *ProgressDisplay) Complete(summary report.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	if !p.verbose {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "%s %d downloaded, %d already on disk, %d failed • %s in %s\n",
		Green("✓"), summary.Downloaded, summary.Skipped, summary.Failed,
		FormatBytes(summary.Bytes), FormatDuration(elapsed))
}

// CompleteBuild ends a build pass with a summary line
func (p *ProgressDisplay) CompleteBuild(entries int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.verbose {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "%s %d entries over %d days in %s\n",
		Green("✓"), entries, p.done, FormatDuration(time.Since(p.startTime)))
}

func (p *ProgressDisplay) eta() string {
	if p.done == 0 || p.total == 0 {
		return "calculating..."
	}
	perItem := time.Since(p.startTime) / time.Duration(p.done)
	return FormatDuration(perItem * time.Duration(p.total-p.done))
}

// FormatDuration formats a duration for humans
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats a byte count for humans
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
