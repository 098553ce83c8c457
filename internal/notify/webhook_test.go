package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/andresuchdata/tmdb-mirror/internal/config"
	"github.com/andresuchdata/tmdb-mirror/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnounceSendsBasicAuthJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot", user)
		assert.Equal(t, "pw", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookConfig{
		Enabled: true,
		BotUser: "bot",
		BotPass: "pw",
		URL:     srv.URL,
	})
	w.Announce(context.Background(), "hello")

	assert.Equal(t, "hello", got["content"])
}

func TestAnnounceRetriesUntilAccepted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookConfig{Enabled: true, BotUser: "b", BotPass: "p", URL: srv.URL})
	w.Announce(context.Background(), "retry me")

	assert.Equal(t, int32(3), calls.Load())
}

func TestDisabledWebhookIsNoOp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookConfig{Enabled: false, URL: srv.URL})
	w.Announce(context.Background(), "nope")
	w.Report(context.Background(), ingest.Report{Job: "full_sweep_movie"})

	assert.Equal(t, int32(0), calls.Load())
}

func TestReportCarriesDegradedWarning(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookConfig{Enabled: true, BotUser: "b", BotPass: "p", URL: srv.URL})
	w.Report(context.Background(), ingest.Report{
		Job:       "full_sweep_movie",
		Degraded:  true,
		ErrorRate: 0.08,
	})

	assert.Contains(t, got["content"], "WARNING")
	report, ok := got["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "full_sweep_movie", report["job"])
}
