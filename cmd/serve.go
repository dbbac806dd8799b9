package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		wf     windowFlags
		listen string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve availability over HTTP without polling",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, &wf)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			m := metrics.New()
			p, err := newPipeline(ctx, cfg, log, m)
			if err != nil {
				return err
			}
			ws := &web.Server{
				Windows: p.generator,
				Options: cfg.Windows,
				Crawler: p.crawler,
				Metrics: m,
				Logger:  log,
			}

			d, repo, err := openHistory(ctx, cfg, false, log)
			if err != nil {
				return err
			}
			if d != nil {
				defer d.Close()
				ws.Runs = repo
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), log)
		},
	}

	wf.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", ":8111", "HTTP listen address (LISTEN_ADDR)")
	return cmd
}
