package statusview

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// FileRenderLogger writes render failures to one newline-delimited JSON file
// per diagram.
type FileRenderLogger struct {
	directory string
	mutex     sync.Mutex
}

func NewFileRenderLogger(directory string) *FileRenderLogger {
	return &FileRenderLogger{directory: directory}
}

func (l *FileRenderLogger) path(diagramID string) string {
	return filepath.Join(l.directory, fmt.Sprintf("%s.jsonl", ValidFilename(diagramID, "_")))
}

func (l *FileRenderLogger) RenderHistory(ctx context.Context, diagramID string) ([]*RenderLogEntry, error) {
	data, err := os.ReadFile(l.path(diagramID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []*RenderLogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry RenderLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal render log entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, scanner.Err()
}

func (l *FileRenderLogger) LogRender(ctx context.Context, entry *RenderLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := os.MkdirAll(l.directory, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path(entry.DiagramID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}
