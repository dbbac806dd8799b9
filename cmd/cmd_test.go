package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/runs"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	env := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(env, nil, 0o600))
	t.Setenv("ENV_FILE", env)
	t.Setenv("LOG_LEVEL", "error")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "campwatch dev"))
}

func TestWindows(t *testing.T) {
	out, err := run(t, "windows", "--weeks", "3", "--holidays=false", "--nights", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Contains(t, l, "1 nights")
	}
}

func TestWindows_InvalidFlags(t *testing.T) {
	_, err := run(t, "windows", "--nights", "0", "--holidays=false")
	assert.ErrorIs(t, err, internaltypes.ErrConfiguration)

	_, err = run(t, "windows", "--include", "abc")
	assert.Error(t, err)
}

func TestRuns_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "runs")
	assert.ErrorIs(t, err, internaltypes.ErrConfiguration)
}

func TestRuns_ByIDRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "runs", "--id", "3")
	assert.ErrorIs(t, err, internaltypes.ErrConfiguration)
}

func TestPrintRun(t *testing.T) {
	start := time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)
	msg := "region: upstream unavailable"
	var out bytes.Buffer
	printRun(&out, runs.Run{
		ID:         3,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Outcome:    runs.OutcomeFailed,
		Windows:    4,
		ErrorClass: "upstream",
		Error:      &msg,
	})

	assert.Equal(t,
		"id=3 started=2024-06-07T12:00:00Z took=1.5s outcome=failed windows=4 available=0 notified=0 delivered=false"+
			` class=upstream error="region: upstream unavailable"`+"\n",
		out.String())
}
