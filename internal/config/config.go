// internal/config/config.go
//
// This package handles configuration and the .careerflow directory structure.
// Every project directory that tracks applications gets a .careerflow/ folder.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/careerflow/internal/jobs"
	"github.com/kingrea/careerflow/internal/kanban"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".careerflow"

	// HomeEnv overrides the project directory when set.
	HomeEnv = "CAREERFLOW_HOME"

	defaultSoonDays  = 7
	defaultYAMLPath  = "data/jobs.yaml"
	defaultSQLiteDB  = "data/jobs.db"
	defaultLogName   = "journey.log"
	currentVersion   = 1
	configFileName   = "config.yaml"
	defaultStatusCSV = "Backlog, Applied, Interviewing, Offer, Rejected"
)

const defaultProjectConfigYAML = `# careerflow project configuration
version: 1

# Board columns in order. The first entry must be Backlog; jobs whose status
# is not listed after it are shown in Backlog.
statuses: [` + defaultStatusCSV + `]

deadlines:
  # Deadlines this many days out (or fewer) are flagged as due soon.
  soon_days: 7

store:
  # yaml keeps jobs in a plain file; sqlite uses a local database.
  backend: yaml
  path: ` + defaultYAMLPath + `

board:
  # Show the columns on start; tab toggles and the choice is saved here.
  expanded: false
  # Reload the board when the job store changes on disk.
  watch: true
`

// DeadlineConfig controls deadline highlighting.
type DeadlineConfig struct {
	SoonDays int `yaml:"soon_days"`
}

// StoreConfig selects where jobs are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// BoardConfig holds board view preferences.
type BoardConfig struct {
	Expanded bool `yaml:"expanded"`
	Watch    bool `yaml:"watch"`
}

// ProjectConfig models .careerflow/config.yaml.
type ProjectConfig struct {
	Version   int            `yaml:"version"`
	Statuses  []string       `yaml:"statuses"`
	Deadlines DeadlineConfig `yaml:"deadlines"`
	Store     StoreConfig    `yaml:"store"`
	Board     BoardConfig    `yaml:"board"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory careerflow was started from
	ProjectDir string

	// DataDir is ProjectDir/.careerflow
	DataDir string

	Project ProjectConfig

	statuses kanban.StatusSet
}

// ResolveProjectDir picks the project directory: an explicit value wins,
// then CAREERFLOW_HOME, then the working directory.
func ResolveProjectDir(explicit string) (string, error) {
	dir := strings.TrimSpace(explicit)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(HomeEnv))
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("config: working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	return abs, nil
}

// InitDir creates the .careerflow directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .careerflow/
// ├── config.yaml
// ├── data/    <- job store (yaml file or sqlite db)
// ├── logs/    <- journey log
// └── state/   <- exported error reports
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "data"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(root, configFileName))
}

// NewConfig loads the configuration for projectDir. A missing config file
// yields the defaults.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StatusSet returns the validated board statuses.
func (c *Config) StatusSet() kanban.StatusSet {
	if c.statuses.Len() == 0 {
		return kanban.DefaultStatusSet()
	}
	return c.statuses
}

// DeadlinePolicy returns the deadline highlighting policy.
func (c *Config) DeadlinePolicy() kanban.DeadlinePolicy {
	return kanban.DeadlinePolicy{SoonDays: c.Project.Deadlines.SoonDays}
}

// Backend returns the configured store backend.
func (c *Config) Backend() string {
	return c.Project.Store.Backend
}

// StorePath returns the absolute path of the job store.
func (c *Config) StorePath() string {
	return resolvePath(c.DataDir, c.Project.Store.Path)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// LogPath returns the journey log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), defaultLogName)
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

// SetExpanded records the board toggle and persists it.
func (c *Config) SetExpanded(expanded bool) error {
	if c.Project.Board.Expanded == expanded {
		return nil
	}
	c.Project.Board.Expanded = expanded
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.apply(c.Project)
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	parsed.Statuses = nil
	parsed.Store = StoreConfig{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c.apply(parsed)
}

func (c *Config) apply(pc ProjectConfig) error {
	pc.applyDefaults()
	pc.normalize()
	if err := pc.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	statuses, err := kanban.NewStatusSet(pc.Statuses)
	if err != nil {
		return fmt.Errorf("config: statuses: %w", err)
	}
	c.Project = pc
	c.statuses = statuses
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   currentVersion,
		Statuses:  append([]string(nil), kanban.DefaultStatuses...),
		Deadlines: DeadlineConfig{SoonDays: defaultSoonDays},
		Store:     StoreConfig{Backend: jobs.BackendYAML, Path: defaultYAMLPath},
		Board:     BoardConfig{Expanded: false, Watch: true},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = currentVersion
	}
	if len(pc.Statuses) == 0 {
		pc.Statuses = append([]string(nil), kanban.DefaultStatuses...)
	}
	if strings.TrimSpace(pc.Store.Backend) == "" {
		pc.Store.Backend = jobs.BackendYAML
	}
}

func (pc *ProjectConfig) normalize() {
	for i := range pc.Statuses {
		pc.Statuses[i] = strings.TrimSpace(pc.Statuses[i])
	}
	pc.Store.Backend = strings.ToLower(strings.TrimSpace(pc.Store.Backend))
	pc.Store.Path = strings.TrimSpace(pc.Store.Path)
	if pc.Store.Path == "" {
		switch pc.Store.Backend {
		case jobs.BackendSQLite:
			pc.Store.Path = defaultSQLiteDB
		default:
			pc.Store.Path = defaultYAMLPath
		}
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Deadlines.SoonDays < 0 {
		return fmt.Errorf("deadlines.soon_days must be >= 0")
	}
	switch pc.Store.Backend {
	case jobs.BackendYAML, jobs.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be '%s' or '%s'", jobs.BackendYAML, jobs.BackendSQLite)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if err := c.apply(c.Project); err != nil {
		return err
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure data dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
