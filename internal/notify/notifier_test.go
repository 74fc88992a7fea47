package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name  string
	err   error
	calls []string
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	f.calls = append(f.calls, title)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierDeliversAllowedEvent(t *testing.T) {
	a := &fakeSender{name: "a"}
	b := &fakeSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, []string{"feed_lost"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), "feed_lost", "t", "m"))
	assert.Equal(t, []string{"t"}, a.calls)
	assert.Equal(t, []string{"t"}, b.calls)
}

func TestNotifierFiltersUnlistedEvent(t *testing.T) {
	a := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{a}, []string{"feed_lost"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), "order_rejected", "t", "m"))
	assert.Empty(t, a.calls)
}

func TestNotifierEmptyAllowListPassesEverything(t *testing.T) {
	a := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{a}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), "anything", "t", "m"))
	assert.Len(t, a.calls, 1)
}

func TestNotifierJoinsSenderFailures(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("boom")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), "x", "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	// Failure of one sender does not prevent the other from being called.
	assert.Len(t, good.calls, 1)
}

func TestDiscordSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	require.NoError(t, d.Send(context.Background(), "feed lost", "details"))
	assert.Equal(t, "**feed lost**\ndetails", got["content"])
}

func TestDiscordSenderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	err := d.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
