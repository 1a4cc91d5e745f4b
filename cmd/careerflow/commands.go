package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/careerflow/internal/config"
	"github.com/kingrea/careerflow/internal/diag"
	"github.com/kingrea/careerflow/internal/jobs"
	"github.com/kingrea/careerflow/internal/kanban"
	"github.com/kingrea/careerflow/internal/tui"
)

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .careerflow directory and default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.resolveDir()
			if err != nil {
				return err
			}
			if err := config.InitDir(dir); err != nil {
				return err
			}
			cfg, err := config.NewConfig(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s (store: %s at %s)\n", cfg.DataDir, cfg.Backend(), cfg.StorePath())
			return nil
		},
	}
}

func (c *cli) boardCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive kanban board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer p.Close()

			opts := []tui.AppOption{
				tui.WithClock(c.now),
				tui.WithLogbook(p.logbook),
				tui.WithMonitor(diag.NewMonitor(diag.WithClock(c.now))),
				tui.WithErrorTracker(p.tracker),
			}
			if p.cfg.Project.Board.Watch && !noWatch {
				w, err := jobs.NewWatcher(p.store, jobs.DefaultDebounce)
				if err != nil {
					return p.fail(err, "start watcher")
				}
				if err := w.Start(ctx); err != nil {
					return p.fail(err, "start watcher")
				}
				defer w.Stop()
				opts = append(opts, tui.WithWatcher(w))
			}

			p.logbook.Info("Board opened · %s", p.cfg.ProjectDir)
			program := tea.NewProgram(
				tui.NewApp(p.cfg, p.store, opts...),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)
			if _, err := program.Run(); err != nil {
				return p.fail(fmt.Errorf("run board: %w", err), "run board")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the store changes on disk")
	return cmd
}

func (c *cli) addCmd() *cobra.Command {
	var draft jobs.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a job application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer p.Close()

			if s := strings.TrimSpace(draft.Status); s != "" && !p.cfg.StatusSet().IsWorkflow(s) && s != kanban.Backlog {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not a board column; the job will show in Backlog\n", s)
			}
			job, err := jobs.New(draft, c.now())
			if err != nil {
				return err
			}
			if err := jobs.Add(ctx, p.store, job); err != nil {
				return p.fail(err, "add job")
			}
			p.logbook.Info("Added %s · %s", job.Label(), job.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", job.Label(), job.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&draft.Company, "company", "", "company name")
	flags.StringVar(&draft.Title, "title", "", "job title")
	flags.StringVar(&draft.Deadline, "deadline", "", "application deadline, e.g. 2026-11-01")
	flags.StringVar(&draft.Status, "status", "", "initial status (default Backlog)")
	flags.StringVar(&draft.Location, "location", "", "location")
	flags.StringVar(&draft.URL, "url", "", "posting URL")
	flags.StringVar(&draft.Notes, "notes", "", "free-form notes")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs grouped by board column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer p.Close()

			statuses := p.cfg.StatusSet()
			only = strings.TrimSpace(only)
			if only != "" && statuses.Index(only) < 0 {
				return fmt.Errorf("%q is not a board column (have %s)", only, strings.Join(statuses.Names(), ", "))
			}
			list, err := p.store.Load(ctx)
			if err != nil {
				return err
			}
			columns := kanban.PartitionJobs(statuses, jobs.ToKanban(list)).All()
			for _, col := range columns {
				if only != "" && col.Name != only {
					continue
				}
				writeColumn(cmd.OutOrStdout(), col, c.now, p.cfg.DeadlinePolicy())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "status", "", "only show this column")
	return cmd
}

var listTitleStyle = lipgloss.NewStyle().Bold(true)

func writeColumn(w io.Writer, col kanban.Column, now func() time.Time, policy kanban.DeadlinePolicy) {
	fmt.Fprintln(w, listTitleStyle.Render(fmt.Sprintf("%s (%d)", col.Name, col.Count())))
	if col.Count() == 0 {
		fmt.Fprintln(w, "  (none)")
		fmt.Fprintln(w)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "COMPANY", "TITLE", "STATUS", "DEADLINE", "DUE")
	today := now()
	for _, job := range col.Jobs {
		deadline := job.Deadline
		if deadline == "" {
			deadline = "N/A"
		}
		t.Row(string(job.ID), job.Company, job.Title, job.Status, deadline, string(kanban.Classify(job.Deadline, today, policy)))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
}

func (c *cli) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a job to a board column",
		Long: `Moves a job exactly as dropping its card on the column would.

Moving to Backlog leaves the job's status unchanged.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer p.Close()

			id := kanban.JobID(strings.TrimSpace(args[0]))
			job, err := jobs.Move(ctx, p.store, p.cfg.StatusSet(), id, args[1], c.now())
			if err != nil {
				if errors.Is(err, jobs.ErrNotFound) {
					return fmt.Errorf("no job with id %s", id)
				}
				return p.fail(err, "move job")
			}
			p.logbook.Info("Moved %s · %s (cli)", job.Label(), job.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", job.Label(), job.Status)
			return nil
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer p.Close()

			id := kanban.JobID(strings.TrimSpace(args[0]))
			removed, err := jobs.Remove(ctx, p.store, id)
			if err != nil {
				if errors.Is(err, jobs.ErrNotFound) {
					return fmt.Errorf("no job with id %s", id)
				}
				return p.fail(err, "remove job")
			}
			p.logbook.Info("Removed %s", removed.Label())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", removed.Label())
			return nil
		},
	}
}

func (c *cli) errorsCmd() *cobra.Command {
	errorsCmd := &cobra.Command{
		Use:   "errors",
		Short: "Inspect recorded errors",
	}
	var dir string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write recorded errors to careerflow-errors-YYYY-MM-DD.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer p.Close()

			target := dir
			if target == "" {
				if target, err = os.Getwd(); err != nil {
					return err
				}
			}
			path, count, err := p.tracker.Export(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d error(s) to %s\n", count, path)
			return nil
		},
	}
	export.Flags().StringVar(&dir, "dir", "", "directory to write the export to (default working directory)")
	errorsCmd.AddCommand(export)
	return errorsCmd
}
