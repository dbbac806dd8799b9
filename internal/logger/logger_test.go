package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, dev := range []bool{true, false} {
		l, err := New(Config{Level: "debug", Development: dev, OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		require.NotNil(t, l)

		l.With(String("component", "test")).Info("hello", Int("n", 1), Error(errors.New("x")))
		_ = l.Sync()
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Debug("d")
	l.Warn("w")
	assert.NotNil(t, l.With(String("k", "v")))
	assert.NoError(t, l.Sync())
}
