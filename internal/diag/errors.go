package diag

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorEntry is one tracked failure.
type ErrorEntry struct {
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorTracker journals failures as JSON lines so a later process (the CLI)
// can export what the board recorded.
type ErrorTracker struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewErrorTracker journals to path. An empty path keeps nothing.
func NewErrorTracker(path string, opts ...Option) *ErrorTracker {
	o := buildOptions(opts)
	return &ErrorTracker{path: path, now: o.now}
}

// Path returns the journal file.
func (t *ErrorTracker) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Track records err with a short description of where it happened.
func (t *ErrorTracker) Track(err error, context string) error {
	if t == nil || err == nil || t.path == "" {
		return nil
	}
	entry := ErrorEntry{
		Message:   err.Error(),
		Context:   context,
		Timestamp: t.now().UTC(),
	}
	line, encErr := json.Marshal(entry)
	if encErr != nil {
		return fmt.Errorf("diag: encode error entry: %w", encErr)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("diag: ensure journal dir: %w", err)
	}
	f, openErr := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		return fmt.Errorf("diag: open journal: %w", openErr)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("diag: append journal: %w", err)
	}
	return nil
}

// Errors returns every journaled entry, oldest first. Lines that fail to
// decode are skipped.
func (t *ErrorTracker) Errors() ([]ErrorEntry, error) {
	if t == nil || t.path == "" {
		return nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("diag: open journal: %w", err)
	}
	defer f.Close()
	var entries []ErrorEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry ErrorEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("diag: read journal: %w", err)
	}
	return entries, nil
}

// Export writes every entry to dir/careerflow-errors-YYYY-MM-DD.json and
// returns the file path.
func (t *ErrorTracker) Export(dir string) (string, int, error) {
	entries, err := t.Errors()
	if err != nil {
		return "", 0, err
	}
	if entries == nil {
		entries = []ErrorEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("diag: encode export: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("diag: ensure export dir: %w", err)
	}
	name := fmt.Sprintf("careerflow-errors-%s.json", t.now().Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("diag: write export: %w", err)
	}
	return path, len(entries), nil
}
