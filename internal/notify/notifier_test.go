package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/logger"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Deliver(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func TestDispatcher_SkipsEmpty(t *testing.T) {
	n := &fakeNotifier{}
	d := &Dispatcher{Notifier: n}

	sent, err := d.Send(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, n.sent)
}

func TestDispatcher_Truncates(t *testing.T) {
	n := &fakeNotifier{}
	d := &Dispatcher{Notifier: n, MaxLength: 10, Logger: logger.NewNop()}

	sent, err := d.Send(context.Background(), "12345\n7890abcdef")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []string{"12345\n"}, n.sent)
}

func TestDispatcher_WrapsFailures(t *testing.T) {
	d := &Dispatcher{Notifier: &fakeNotifier{err: errors.New("boom")}}

	sent, err := d.Send(context.Background(), "hello")
	assert.False(t, sent)
	require.Error(t, err)
	assert.ErrorIs(t, err, internaltypes.ErrDelivery)
	assert.Contains(t, err.Error(), "fake")
}

func TestLogNotifier(t *testing.T) {
	n := LogNotifier{Logger: logger.NewNop()}
	assert.Equal(t, "log", n.Name())
	assert.NoError(t, n.Deliver(context.Background(), "hi"))
	assert.NoError(t, LogNotifier{}.Deliver(context.Background(), "hi"))
}

func TestTelegram_Deliver(t *testing.T) {
	var got sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("123:abc", "-10042", srv.URL+"/bot", 0)
	require.NoError(t, tg.Deliver(context.Background(), "*📅 2024-06-07*\n"))

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "-10042", got.ChatID)
	assert.Equal(t, "MarkdownV2", got.ParseMode)
	assert.Equal(t, "*📅 2024-06-07*\n", got.Text)
}

func TestTelegram_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := NewTelegram("t", "c", srv.URL+"/bot", 0).Deliver(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, internaltypes.ErrDelivery)
	assert.True(t, strings.Contains(err.Error(), "chat not found"))
}
