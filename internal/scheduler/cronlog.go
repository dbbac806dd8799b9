package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/example/campwatch/internal/logger"
)

// cronLogger routes cron's own messages into the structured log.
type cronLogger struct {
	log logger.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
