package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/campwatch/internal/logger"
	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/notify"
	"github.com/example/campwatch/internal/scheduler"
	"github.com/example/campwatch/internal/web"
)

func newWatchCmd() *cobra.Command {
	var (
		wf        windowFlags
		listen    string
		serveHTTP bool
		migrateUp bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll availability on a schedule and notify about newly open campgrounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, &wf)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			mode, err := scheduler.ParseFailureMode(cfg.FailureMode)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			m := metrics.New()
			disp, err := newDispatcher(cfg, log, m)
			if err != nil {
				return err
			}
			p, err := newPipeline(ctx, cfg, log, m)
			if err != nil {
				return err
			}

			d, repo, err := openHistory(ctx, cfg, migrateUp, log)
			if err != nil {
				return err
			}
			if d != nil {
				defer d.Close()
			}

			s := &scheduler.Scheduler{
				Windows:     p.generator,
				Options:     cfg.Windows,
				Crawler:     p.crawler,
				Dedup:       notify.NewState(),
				Dispatcher:  disp,
				Metrics:     m,
				Logger:      log.With(logger.String("component", "scheduler")),
				Schedule:    cfg.PollSchedule,
				Interval:    cfg.PollInterval,
				Location:    cfg.Location(),
				FailureMode: mode,
			}
			ws := &web.Server{
				Windows:   p.generator,
				Options:   cfg.Windows,
				Crawler:   p.crawler,
				Snapshots: s,
				Metrics:   m,
				Logger:    log.With(logger.String("component", "web")),
			}
			if repo != nil {
				s.History = repo
				ws.Runs = repo
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return s.Run(gctx) })
			if serveHTTP {
				g.Go(func() error { return web.Start(gctx, cfg.ListenAddr, ws.Routes(), log) })
			}
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	wf.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", ":8111", "HTTP listen address (LISTEN_ADDR)")
	cmd.Flags().BoolVar(&serveHTTP, "http", true, "serve the HTTP endpoints while watching")
	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup when DATABASE_URL is set")
	return cmd
}
