package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/careerflow/internal/config"
	"github.com/kingrea/careerflow/internal/diag"
	"github.com/kingrea/careerflow/internal/jobs"
	"github.com/kingrea/careerflow/internal/logbook"
)

// errorsJournal is the tracker file under .careerflow/state.
const errorsJournal = "errors.jsonl"

// cli carries the global flags shared by every subcommand.
type cli struct {
	projectDir string
	now        func() time.Time
}

// project is an opened .careerflow directory.
type project struct {
	cfg     *config.Config
	store   jobs.Store
	logbook *logbook.Logbook
	tracker *diag.ErrorTracker
}

func (p *project) Close() error {
	if p == nil || p.store == nil {
		return nil
	}
	return p.store.Close()
}

func newRootCmd() *cobra.Command {
	return (&cli{now: time.Now}).rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "careerflow",
		Short: "Track job applications on a kanban board",
		Long: `careerflow keeps your job applications in a local store and shows them
on a kanban board, one column per application status.

Run "careerflow board" to open the interactive board. Cards are moved with
the keyboard: space picks a card up, the arrow keys carry it, and space
drops it on the focused column.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.projectDir, "project", "", "project directory (default $"+config.HomeEnv+" or the working directory)")

	root.AddCommand(
		c.initCmd(),
		c.boardCmd(),
		c.addCmd(),
		c.listCmd(),
		c.moveCmd(),
		c.rmCmd(),
		c.errorsCmd(),
	)
	return root
}

func (c *cli) resolveDir() (string, error) {
	return config.ResolveProjectDir(c.projectDir)
}

// open loads the project config and its store. When create is set the
// .careerflow directory is initialized first.
func (c *cli) open(ctx context.Context, create bool) (*project, error) {
	dir, err := c.resolveDir()
	if err != nil {
		return nil, err
	}
	if create {
		if err := config.InitDir(dir); err != nil {
			return nil, err
		}
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	store, err := jobs.Open(ctx, cfg.Backend(), cfg.StorePath(), jobs.WithClock(c.now))
	if err != nil {
		return nil, err
	}
	p := &project{
		cfg:     cfg,
		store:   store,
		tracker: diag.NewErrorTracker(filepath.Join(cfg.StateDir(), errorsJournal), diag.WithClock(c.now)),
	}
	if create {
		lb, err := logbook.New(cfg.LogPath(), logbook.WithClock(c.now))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open logbook: %w", err)
		}
		p.logbook = lb
	}
	return p, nil
}

// fail records err in the error journal before handing it back to cobra.
func (p *project) fail(err error, where string) error {
	if err == nil {
		return nil
	}
	p.logbook.Error("%s: %v", where, err)
	if p.tracker != nil {
		_ = p.tracker.Track(err, where)
	}
	return err
}
