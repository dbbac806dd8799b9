package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/runs"
)

func newRunsCmd() *cobra.Command {
	var (
		limit int
		id    int64
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent polling cycles from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required: %w", internaltypes.ErrConfiguration)
			}

			ctx := cmd.Context()
			d, repo, err := openHistory(ctx, cfg, true, log)
			if err != nil {
				return err
			}
			defer d.Close()

			if cmd.Flags().Changed("id") {
				r, err := repo.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("run %d: %w", id, err)
				}
				printRun(cmd.OutOrStdout(), r)
				return nil
			}

			rs, err := repo.Recent(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range rs {
				printRun(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of cycles to show")
	cmd.Flags().Int64Var(&id, "id", 0, "show a single cycle by id")
	return cmd
}

func printRun(w io.Writer, r runs.Run) {
	line := fmt.Sprintf("id=%d started=%s took=%s outcome=%s windows=%d available=%d notified=%d delivered=%t",
		r.ID, r.StartedAt.Format(time.RFC3339), r.Duration().Round(time.Millisecond), r.Outcome,
		r.Windows, r.Available, r.Notified, r.Delivered)
	if r.Error != nil {
		line += fmt.Sprintf(" class=%s error=%q", r.ErrorClass, *r.Error)
	}
	fmt.Fprintln(w, line)
}
