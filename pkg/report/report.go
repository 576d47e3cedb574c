// Package report records what a download pass did with every selected entry.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	errs "barchive/pkg/errors"
	"barchive/pkg/models"

	"github.com/google/uuid"
)

// Outcome is the result of one entry
type Outcome string

const (
	OutcomeDownloaded    Outcome = "downloaded"
	OutcomeSkippedExists Outcome = "skipped_exists"
	OutcomeFailed        Outcome = "failed"
)

// Item is the result of one entry
type Item struct {
	URI        string         `json:"uri"`
	File       string         `json:"file"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Outcome    Outcome        `json:"outcome"`
	Bytes      int64          `json:"bytes,omitempty"`
	ErrorType  errs.ErrorType `json:"error_type,omitempty"`
	Error      string         `json:"error,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
}

// Summary counts items by outcome
type Summary struct {
	Downloaded int   `json:"downloaded"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	Bytes      int64 `json:"bytes"`
}

// Total returns the number of items
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// Report is the outcome of one download pass
type Report struct {
	RunID      string    `json:"run_id"`
	FeedID     string    `json:"feed_id"`
	OutputDir  string    `json:"output_dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Summary    Summary   `json:"summary"`
	Items      []Item    `json:"items"`
}

// New starts a report
func New(feedID, outputDir string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		FeedID:    feedID,
		OutputDir: outputDir,
		StartedAt: time.Now(),
		Items:     []Item{},
	}
}

// Record adds the result for entry. A nil err with OutcomeFailed is allowed
// but unusual; a non-nil err always records OutcomeFailed.
func (r *Report) Record(entry models.Entry, file string, outcome Outcome, bytes int64, err error) Item {
	item := Item{
		URI:     entry.URI,
		File:    file,
		Start:   entry.Start,
		End:     entry.End,
		Outcome: outcome,
		Bytes:   bytes,
	}
	if err != nil {
		item.Outcome = OutcomeFailed
		item.Error = err.Error()
		item.ErrorType = errs.TypeOf(err)
		var typed *errs.Error
		if errors.As(err, &typed) {
			item.StatusCode = typed.Code
		}
	}

	switch item.Outcome {
	case OutcomeDownloaded:
		r.Summary.Downloaded++
		r.Summary.Bytes += bytes
	case OutcomeSkippedExists:
		r.Summary.Skipped++
	default:
		r.Summary.Failed++
	}
	r.Items = append(r.Items, item)
	return item
}

// Finish stamps the end time
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

// Failures returns the failed items
func (r *Report) Failures() []Item {
	var failed []Item
	for _, item := range r.Items {
		if item.Outcome == OutcomeFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

// FileName is the default report file name inside the output directory
func (r *Report) FileName() string {
	return fmt.Sprintf("barchive-report-%s-%s.json", r.FeedID, r.StartedAt.Format("20060102-150405"))
}

// Save writes the report as indented JSON
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Load reads a report written by Save
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}
