package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/example/campwatch/internal/availability"
	"github.com/example/campwatch/internal/config"
	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/db"
	"github.com/example/campwatch/internal/holidays"
	"github.com/example/campwatch/internal/logger"
	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/migrate"
	"github.com/example/campwatch/internal/notify"
	"github.com/example/campwatch/internal/ontario"
	"github.com/example/campwatch/internal/runs"
)

// windowFlags override the window and park filter settings from the environment.
type windowFlags struct {
	weeks        int
	weekday      int
	nights       int
	weeksFromNow int
	holidays     bool
	include      string
	exclude      string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.weeks, "weeks", 4, "number of weeks to probe (WEEKS)")
	fl.IntVar(&f.weekday, "start-weekday", 4, "arrival weekday, Monday=0 (START_WEEKDAY)")
	fl.IntVar(&f.nights, "nights", 2, "nights per stay (NIGHTS)")
	fl.IntVar(&f.weeksFromNow, "weeks-from-now", 0, "skip this many weeks before the first window (WEEKS_FROM_NOW)")
	fl.BoolVar(&f.holidays, "holidays", true, "add a shifted window before statutory holidays (USE_HOLIDAYS)")
	fl.StringVar(&f.include, "include", "", "comma separated park map ids to keep (INCLUDE_PARKS)")
	fl.StringVar(&f.exclude, "exclude", "", "comma separated park map ids to skip (EXCLUDE_PARKS)")
}

func (f *windowFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("weeks") {
		cfg.Windows.Weeks = f.weeks
	}
	if fl.Changed("start-weekday") {
		cfg.Windows.StartWeekday = f.weekday
	}
	if fl.Changed("nights") {
		cfg.Windows.Nights = f.nights
	}
	if fl.Changed("weeks-from-now") {
		cfg.Windows.WeeksFromNow = f.weeksFromNow
	}
	if fl.Changed("holidays") {
		cfg.Windows.UseHolidays = f.holidays
	}
	if fl.Changed("include") {
		ids, err := config.ParseIDs(f.include)
		if err != nil {
			return fmt.Errorf("invalid --include: %w", err)
		}
		cfg.IncludeParks = ids
	}
	if fl.Changed("exclude") {
		ids, err := config.ParseIDs(f.exclude)
		if err != nil {
			return fmt.Errorf("invalid --exclude: %w", err)
		}
		cfg.ExcludeParks = ids
	}
	return nil
}

// loadConfig reads the environment, applies flag overrides, validates the
// result and builds the logger.
func loadConfig(cmd *cobra.Command, wf *windowFlags) (config.Config, logger.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	if wf != nil {
		if err := wf.apply(cmd, &cfg); err != nil {
			return config.Config{}, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newGenerator(cfg config.Config) *dates.Generator {
	g := &dates.Generator{Location: cfg.Location()}
	if cfg.Windows.UseHolidays {
		g.Holidays = holidays.New(cfg.HolidaysURL, cfg.HolidayProvince, cfg.HolidayCacheTTL, &http.Client{Timeout: cfg.UpstreamTimeout})
	}
	return g
}

// pipeline is the crawl side of a cycle: windows, API client and catalog.
type pipeline struct {
	generator *dates.Generator
	client    *ontario.Client
	catalog   *ontario.Catalog
	crawler   *availability.Crawler
}

func newPipeline(ctx context.Context, cfg config.Config, log logger.Logger, m *metrics.Metrics) (*pipeline, error) {
	client := ontario.New(ontario.Options{
		BaseURL:   cfg.ReservationsBaseURL,
		PartySize: cfg.PartySize,
		Timeout:   cfg.UpstreamTimeout,
		RPS:       cfg.UpstreamRPS,
		Metrics:   m,
	})

	catalog, err := client.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Catalog loaded", logger.Int("titles", catalog.Len()))

	filter := availability.NewFilter(cfg.IncludeParks, cfg.ExcludeParks)
	log.Info("Park filter",
		logger.Strings("include", titles(catalog, filter.Include())),
		logger.Strings("exclude", titles(catalog, filter.Exclude())),
	)

	booking := ontario.Booking{BaseURL: cfg.BookingBaseURL, PartySize: cfg.PartySize}
	return &pipeline{
		generator: newGenerator(cfg),
		client:    client,
		catalog:   catalog,
		crawler: &availability.Crawler{
			Fetcher:     client,
			Titles:      catalog,
			Filter:      filter,
			BookingURL:  booking.Builder(),
			RegionID:    cfg.RegionMapID,
			Concurrency: cfg.CrawlConcurrency,
			Logger:      log,
		},
	}, nil
}

func titles(c *ontario.Catalog, ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%s (%d)", c.Title(id), id)
	}
	return out
}

func newDispatcher(cfg config.Config, log logger.Logger, m *metrics.Metrics) (*notify.Dispatcher, error) {
	if err := cfg.ValidateNotifier(); err != nil {
		return nil, err
	}
	var n notify.Notifier
	switch cfg.Notifier {
	case config.NotifierLog:
		n = notify.LogNotifier{Logger: log}
	default:
		n = notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramAPIURL, cfg.UpstreamTimeout)
	}
	return &notify.Dispatcher{Notifier: n, MaxLength: cfg.NotifyMaxLength, Logger: log, Metrics: m}, nil
}

// openHistory connects to DATABASE_URL when set. Both results are nil
// without a database.
func openHistory(ctx context.Context, cfg config.Config, migrateUp bool, log logger.Logger) (*db.DB, *runs.Repo, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if migrateUp {
		applied, err := migrate.Up(ctx, d)
		if err != nil {
			d.Close()
			return nil, nil, err
		}
		if len(applied) > 0 {
			log.Info("Migrations applied", logger.Strings("versions", applied))
		}
	}
	return d, runs.NewRepo(d), nil
}
