package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/logger"
	"github.com/example/campwatch/internal/metrics"
)

// DefaultMaxLength is the Telegram message size limit.
const DefaultMaxLength = 4096

// Notifier delivers one text message.
type Notifier interface {
	Name() string
	Deliver(ctx context.Context, text string) error
}

// Dispatcher truncates messages to MaxLength and skips empty ones before
// handing them to Notifier.
type Dispatcher struct {
	Notifier  Notifier
	MaxLength int
	Logger    logger.Logger
	Metrics   *metrics.Metrics
}

// Send delivers text and reports whether anything went out. Failures wrap
// internaltypes.ErrDelivery.
func (d *Dispatcher) Send(ctx context.Context, text string) (bool, error) {
	if text == "" {
		return false, nil
	}
	limit := d.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	msg := Truncate(text, limit)
	if len(msg) < len(text) {
		d.log().Warn("Notification truncated",
			logger.Int("length", len(text)),
			logger.Int("sent", len(msg)),
		)
	}

	err := d.Notifier.Deliver(ctx, msg)
	d.Metrics.ObserveDelivery(d.Notifier.Name(), err)
	if err != nil {
		if !errors.Is(err, internaltypes.ErrDelivery) {
			err = fmt.Errorf("%v: %w", err, internaltypes.ErrDelivery)
		}
		return false, fmt.Errorf("deliver via %s: %w", d.Notifier.Name(), err)
	}
	return true, nil
}

func (d *Dispatcher) log() logger.Logger {
	if d.Logger == nil {
		return logger.NewNop()
	}
	return d.Logger
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	Logger logger.Logger
}

func (LogNotifier) Name() string { return "log" }

func (n LogNotifier) Deliver(_ context.Context, text string) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.Info("Notification", logger.String("text", text))
	return nil
}
