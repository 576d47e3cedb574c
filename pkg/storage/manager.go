package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Extension of every archive file
const Extension = ".mp3"

// ArchiveFileName names the file for an entry of feedID ending at end
func ArchiveFileName(feedID string, end time.Time) string {
	return fmt.Sprintf("%s-%s%s", feedID, end.Format("20060102-1504"), Extension)
}

// Manager handles the output directory and duplicate detection
type Manager struct {
	outputDir string
	existing  map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes the
// archive files already in it
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		existing:  make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), Extension) {
			m.existing[entry.Name()] = true
		}
	}
	return nil
}

// Dir returns the output directory
func (m *Manager) Dir() string {
	return m.outputDir
}

// Path returns the full path of a file in the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether the named file is already in the output directory.
// Files removed since the scan are noticed.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.existing[name]
	m.mu.RUnlock()

	_, err := os.Stat(m.Path(name))
	found := err == nil

	if found != known {
		m.mu.Lock()
		m.existing[name] = found
		m.mu.Unlock()
	}
	return found
}

// Save streams r into the named file and returns the bytes written. The file
// only appears under its final name once the stream is complete.
func (m *Manager) Save(r io.Reader, name string) (int64, error) {
	out, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tempFile, m.Path(name)); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.existing[name] = true
	m.mu.Unlock()

	return written, nil
}

// Count returns how many archive files are known to be in the directory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ok := range m.existing {
		if ok {
			n++
		}
	}
	return n
}
