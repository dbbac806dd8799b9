package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/notify"
	"github.com/example/campwatch/internal/scheduler"
)

func newCheckCmd() *cobra.Command {
	var (
		wf   windowFlags
		send bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one polling cycle and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, &wf)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			ctx := cmd.Context()

			var m *metrics.Metrics
			p, err := newPipeline(ctx, cfg, log, m)
			if err != nil {
				return err
			}
			s := &scheduler.Scheduler{
				Windows: p.generator,
				Options: cfg.Windows,
				Crawler: p.crawler,
				Dedup:   notify.NewState(),
				Logger:  log,
			}
			if send {
				if s.Dispatcher, err = newDispatcher(cfg, log, m); err != nil {
					return err
				}
			}

			run, err := s.RunCycle(ctx)
			if err != nil {
				return err
			}

			text := notify.Render(s.Latest().Weekends)
			out := cmd.OutOrStdout()
			if text == "" {
				fmt.Fprintf(out, "no available campgrounds in %d windows\n", run.Windows)
				return nil
			}
			fmt.Fprint(out, text)
			if send {
				fmt.Fprintf(out, "sent: %t\n", run.Delivered)
			}
			return nil
		},
	}

	wf.register(cmd)
	cmd.Flags().BoolVar(&send, "send", false, "deliver the report through the configured notifier")
	return cmd
}
