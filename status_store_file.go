package statusview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileStatusStore persists statuses to disk, one directory per workflow. Each
// save writes a new status file and points latest.json at it.
type FileStatusStore struct {
	dataDir string
}

// NewFileStatusStore creates a file-based store rooted at dataDir
func NewFileStatusStore(dataDir string) (*FileStatusStore, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".statusview", "statuses")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &FileStatusStore{dataDir: dataDir}, nil
}

// workflowDir names a workflow's directory after its sanitized name plus a
// hash of the exact name, so names that sanitize alike stay apart.
func (s *FileStatusStore) workflowDir(name string) string {
	sum := sha256.Sum256([]byte(name))
	return filepath.Join(s.dataDir, ValidFilename(name, "_")+"-"+hex.EncodeToString(sum[:4]))
}

// SaveStatus writes the status and updates the latest link
func (s *FileStatusStore) SaveStatus(ctx context.Context, status *Status) error {
	if status.Name == "" {
		return fmt.Errorf("status name required")
	}
	dir := s.workflowDir(status.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create workflow directory: %w", err)
	}

	id := status.RequestID
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	statusPath := filepath.Join(dir, fmt.Sprintf("status-%s.json", ValidFilename(id, "_")))
	data, err := status.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(statusPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}

	latestPath := filepath.Join(dir, "latest.json")
	if err := s.updateLatestLink(statusPath, latestPath); err != nil {
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// LoadStatus loads the latest status of a workflow
func (s *FileStatusStore) LoadStatus(ctx context.Context, name string) (*Status, error) {
	latestPath := filepath.Join(s.workflowDir(name), "latest.json")
	data, err := os.ReadFile(latestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}
	return StatusFromJSON(data)
}

// DeleteStatus removes every status of a workflow
func (s *FileStatusStore) DeleteStatus(ctx context.Context, name string) error {
	if err := os.RemoveAll(s.workflowDir(name)); err != nil {
		return fmt.Errorf("failed to delete workflow directory: %w", err)
	}
	return nil
}

// ListStatuses summarizes the latest status of each workflow, newest first
func (s *FileStatusStore) ListStatuses(ctx context.Context) ([]*StatusSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*StatusSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	summaries := []*StatusSummary{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dataDir, entry.Name(), "latest.json"))
		if err != nil {
			// Skip workflows without a readable status
			continue
		}
		status, err := StatusFromJSON(data)
		if err != nil {
			continue
		}
		summaries = append(summaries, Summarize(status))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].StartedAt > summaries[j].StartedAt
	})
	return summaries, nil
}

// updateLatestLink points latestPath at statusPath
func (s *FileStatusStore) updateLatestLink(statusPath, latestPath string) error {
	if _, err := os.Lstat(latestPath); err == nil {
		if err := os.Remove(latestPath); err != nil {
			return fmt.Errorf("failed to remove existing latest link: %w", err)
		}
	}

	// On Windows, copy the file instead of creating a symlink
	if strings.Contains(os.Getenv("OS"), "Windows") {
		data, err := os.ReadFile(statusPath)
		if err != nil {
			return fmt.Errorf("failed to read status for copy: %w", err)
		}
		return os.WriteFile(latestPath, data, 0644)
	}

	rel, err := filepath.Rel(filepath.Dir(latestPath), statusPath)
	if err != nil {
		return fmt.Errorf("failed to create relative path: %w", err)
	}
	return os.Symlink(rel, latestPath)
}
