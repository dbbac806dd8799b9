// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/internaltypes"
)

const (
	NotifierTelegram = "telegram"
	NotifierLog      = "log"

	DefaultRegionMapID = -2147483461
)

type Config struct {
	ListenAddr  string
	DatabaseURL string

	LogLevel       string
	LogDevelopment bool

	Windows      dates.Options
	IncludeParks []int64
	ExcludeParks []int64
	RegionMapID  int64

	// scheduler
	PollInterval time.Duration
	PollSchedule string
	FailureMode  string

	CrawlConcurrency    int
	UpstreamRPS         float64
	UpstreamTimeout     time.Duration
	ReservationsBaseURL string
	BookingBaseURL      string
	PartySize           int

	HolidaysURL     string
	HolidayProvince string
	HolidayCacheTTL time.Duration
	Timezone        string

	Notifier        string
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIURL  string
	NotifyMaxLength int
}

// LoadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Variables already present in the environment win. Missing files are ignored.
func LoadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func FromEnv() (Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return Config{}, fmt.Errorf("%v: %w", err, internaltypes.ErrConfiguration)
	}

	p := &parser{}
	cfg := Config{
		ListenAddr:     getenv("LISTEN_ADDR", ":8111"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogDevelopment: p.getBool("LOG_DEVELOPMENT", false),

		Windows: dates.Options{
			Weeks:        p.getInt("WEEKS", 4),
			StartWeekday: p.getInt("START_WEEKDAY", 4),
			Nights:       p.getInt("NIGHTS", 2),
			UseHolidays:  p.getBool("USE_HOLIDAYS", true),
			WeeksFromNow: p.getInt("WEEKS_FROM_NOW", 0),
		},
		IncludeParks: p.getIDs("INCLUDE_PARKS"),
		ExcludeParks: p.getIDs("EXCLUDE_PARKS"),
		RegionMapID:  p.getInt64("REGION_MAP_ID", DefaultRegionMapID),

		PollInterval: p.getDuration("POLL_INTERVAL", time.Minute),
		PollSchedule: os.Getenv("POLL_SCHEDULE"),
		FailureMode:  getenv("FAILURE_MODE", "continue"),

		CrawlConcurrency:    p.getInt("CRAWL_CONCURRENCY", 4),
		UpstreamRPS:         p.getFloat("UPSTREAM_RPS", 5),
		UpstreamTimeout:     p.getDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		ReservationsBaseURL: getenv("RESERVATIONS_BASE_URL", "https://reservations.ontarioparks.com/api"),
		BookingBaseURL:      getenv("BOOKING_BASE_URL", "https://reservations.ontarioparks.com/create-booking/results"),
		PartySize:           p.getInt("PARTY_SIZE", 3),

		HolidaysURL:     getenv("HOLIDAYS_URL", "https://canada-holidays.ca/api/v1/holidays"),
		HolidayProvince: getenv("HOLIDAY_PROVINCE", "ON"),
		HolidayCacheTTL: p.getDuration("HOLIDAY_CACHE_TTL", 12*time.Hour),
		Timezone:        getenv("TIMEZONE", "America/Toronto"),

		Notifier:        strings.ToLower(getenv("NOTIFIER", NotifierTelegram)),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:  os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramAPIURL:  getenv("TELEGRAM_API_URL", "https://api.telegram.org/bot"),
		NotifyMaxLength: p.getInt("NOTIFY_MAX_LENGTH", 4096),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// Validate checks settings every command depends on.
func (c Config) Validate() error {
	var errs []error
	if err := c.Windows.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.CrawlConcurrency < 1 {
		errs = append(errs, fmt.Errorf("CRAWL_CONCURRENCY must be at least 1"))
	}
	if c.UpstreamRPS < 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_RPS must not be negative"))
	}
	if c.PartySize < 1 {
		errs = append(errs, fmt.Errorf("PARTY_SIZE must be at least 1"))
	}
	if c.PollInterval <= 0 && c.PollSchedule == "" {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive"))
	}
	if c.FailureMode != "continue" && c.FailureMode != "stop" {
		errs = append(errs, fmt.Errorf("FAILURE_MODE must be continue or stop, got %q", c.FailureMode))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %v", err))
	}
	for _, id := range c.IncludeParks {
		if containsID(c.ExcludeParks, id) {
			errs = append(errs, fmt.Errorf("park %d is both included and excluded", id))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", internaltypes.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// ValidateNotifier checks the settings needed to deliver notifications.
func (c Config) ValidateNotifier() error {
	switch c.Notifier {
	case NotifierLog:
	case NotifierTelegram:
		if c.TelegramToken == "" || c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for the telegram notifier: %w", internaltypes.ErrConfiguration)
		}
	default:
		return fmt.Errorf("NOTIFIER must be telegram or log, got %q: %w", c.Notifier, internaltypes.ErrConfiguration)
	}
	if c.NotifyMaxLength < 1 {
		return fmt.Errorf("NOTIFY_MAX_LENGTH must be at least 1: %w", internaltypes.ErrConfiguration)
	}
	return nil
}

// Location returns the zone "today" is computed in. Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// parser keeps the first conversion error so FromEnv can report it once.
type parser struct {
	err error
}

func (p *parser) fail(k, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %v: %w", k, v, err, internaltypes.ErrConfiguration)
	}
}

func (p *parser) getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return n
}

func (p *parser) getInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return n
}

func (p *parser) getFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return f
}

func (p *parser) getBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return b
}

func (p *parser) getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return d
}

func (p *parser) getIDs(k string) []int64 {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	out, err := ParseIDs(v)
	if err != nil {
		p.fail(k, v, err)
		return nil
	}
	return out
}

// ParseIDs parses a comma separated list of map ids. Blank entries are skipped.
func ParseIDs(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
