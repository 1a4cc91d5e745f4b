package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const fileFormatVersion = 1

// fileDocument is the on-disk layout of the YAML store.
type fileDocument struct {
	Careerflow fileHeader `yaml:"careerflow"`
	Jobs       []Job      `yaml:"jobs"`
}

type fileHeader struct {
	Version int    `yaml:"version"`
	Updated string `yaml:"updated,omitempty"`
}

// FileStore keeps the collection in a single YAML document.
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore builds a store backed by path. The file is created on the
// first Replace.
func NewFileStore(path string, opts ...Option) *FileStore {
	o := buildOptions(opts)
	return &FileStore{path: path, now: o.now}
}

// Path returns the YAML file.
func (s *FileStore) Path() string { return s.path }

// Close is a no-op; the file is only open during calls.
func (s *FileStore) Close() error { return nil }

// Load reads the collection. A missing file is an empty collection.
func (s *FileStore) Load(ctx context.Context) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Job{}, nil
		}
		return nil, fmt.Errorf("jobs: read %s: %w", s.path, err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jobs: parse %s: %w", s.path, err)
	}
	if doc.Careerflow.Version > fileFormatVersion {
		return nil, fmt.Errorf("jobs: %s has format version %d, newer than %d", s.path, doc.Careerflow.Version, fileFormatVersion)
	}
	if err := CheckUnique(doc.Jobs); err != nil {
		return nil, fmt.Errorf("jobs: %s: %w", s.path, err)
	}
	if doc.Jobs == nil {
		doc.Jobs = []Job{}
	}
	return doc.Jobs, nil
}

// Replace writes list as the whole collection. The file is written to a
// temporary sibling and renamed into place.
func (s *FileStore) Replace(ctx context.Context, list []Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckUnique(list); err != nil {
		return err
	}
	doc := fileDocument{
		Careerflow: fileHeader{
			Version: fileFormatVersion,
			Updated: s.now().UTC().Format(time.RFC3339),
		},
		Jobs: list,
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("jobs: encode collection: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jobs: ensure store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".jobs-*.yaml")
	if err != nil {
		return fmt.Errorf("jobs: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jobs: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jobs: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("jobs: replace %s: %w", s.path, err)
	}
	return nil
}
