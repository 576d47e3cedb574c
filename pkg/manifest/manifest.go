package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"barchive/pkg/logger"
	"barchive/pkg/models"

	"github.com/google/uuid"
)

// CurrentVersion is the manifest format written by this build
const CurrentVersion = 1

var feedIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Manifest is the persisted state of one feed's archive
type Manifest struct {
	Version       int              `json:"version"`
	RunID         string           `json:"run_id"`
	FeedID        string           `json:"feed_id"`
	FeedName      string           `json:"feed_name"`
	Range         models.DateRange `json:"range"`
	Chronological bool             `json:"chronological"`
	Entries       []models.Entry   `json:"entries"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// New starts a manifest for a build run with a fresh run id
func New(feedID, feedName string, rng models.DateRange, entries []models.Entry) *Manifest {
	now := time.Now()
	return &Manifest{
		Version:   CurrentVersion,
		RunID:     uuid.NewString(),
		FeedID:    feedID,
		FeedName:  feedName,
		Range:     rng,
		Entries:   entries,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Span returns the earliest start and latest end over all entries
func (m *Manifest) Span() (time.Time, time.Time) {
	var first, last time.Time
	for _, e := range m.Entries {
		if first.IsZero() || e.Start.Before(first) {
			first = e.Start
		}
		if e.End.After(last) {
			last = e.End
		}
	}
	return first, last
}

// Manager reads and writes manifests in one directory, one file per feed
type Manager struct {
	dir    string
	logger logger.Logger
}

// NewManager creates the manifest directory if needed
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("manifest directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return &Manager{dir: dir, logger: logger.GetLogger()}, nil
}

// Path returns the manifest file for a feed
func (m *Manager) Path(feedID string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s.manifest.json", feedID))
}

func checkFeedID(feedID string) error {
	if !feedIDPattern.MatchString(feedID) {
		return fmt.Errorf("invalid feed id %q", feedID)
	}
	return nil
}

// Load returns the feed's manifest, or nil when none was saved
func (m *Manager) Load(feedID string) (*Manifest, error) {
	if err := checkFeedID(feedID); err != nil {
		return nil, err
	}

	file, err := os.Open(m.Path(feedID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var manifest Manifest
	if err := json.NewDecoder(file).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", manifest.Version)
	}
	if manifest.FeedID != feedID {
		return nil, fmt.Errorf("manifest at %s belongs to feed %s", m.Path(feedID), manifest.FeedID)
	}

	m.logger.DebugWithFields("Manifest loaded", map[string]interface{}{
		"feed_id": feedID,
		"run_id":  manifest.RunID,
		"entries": len(manifest.Entries),
	})
	return &manifest, nil
}

// Save writes the manifest atomically
func (m *Manager) Save(manifest *Manifest) error {
	if err := checkFeedID(manifest.FeedID); err != nil {
		return err
	}
	manifest.UpdatedAt = time.Now()

	path := m.Path(manifest.FeedID)
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest file: %w", err)
	}

	m.logger.DebugWithFields("Manifest saved", map[string]interface{}{
		"feed_id": manifest.FeedID,
		"run_id":  manifest.RunID,
		"entries": len(manifest.Entries),
	})
	return nil
}

// Delete removes the feed's manifest. A missing manifest is not an error.
func (m *Manager) Delete(feedID string) error {
	if err := checkFeedID(feedID); err != nil {
		return err
	}
	if err := os.Remove(m.Path(feedID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete manifest: %w", err)
	}
	return nil
}

// Exists reports whether a manifest was saved for the feed
func (m *Manager) Exists(feedID string) bool {
	if checkFeedID(feedID) != nil {
		return false
	}
	_, err := os.Stat(m.Path(feedID))
	return err == nil
}
