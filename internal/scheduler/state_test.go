package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	allowed := []struct{ from, to State }{
		{Idle, Running},
		{Running, Succeeded},
		{Running, Failed},
		{Succeeded, Idle},
		{Failed, Idle},
		{Failed, Terminated},
		{Idle, Terminated},
	}
	for _, tt := range allowed {
		assert.True(t, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}

	denied := []struct{ from, to State }{
		{Idle, Succeeded},
		{Running, Idle},
		{Running, Running},
		{Succeeded, Running},
		{Terminated, Idle},
		{Terminated, Running},
	}
	for _, tt := range denied {
		assert.False(t, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "terminated", Terminated.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestParseFailureMode(t *testing.T) {
	m, err := ParseFailureMode("")
	require.NoError(t, err)
	assert.Equal(t, Continue, m)

	m, err = ParseFailureMode("stop")
	require.NoError(t, err)
	assert.Equal(t, Stop, m)

	_, err = ParseFailureMode("explode")
	assert.Error(t, err)
}
