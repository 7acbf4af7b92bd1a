package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"site-deployer/internal/notify"
	"site-deployer/pkg/api"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBackoff = []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond}

func samplePayload() api.EvaluationPayload {
	return api.EvaluationPayload{
		Email:     "a@b.com",
		Task:      "t1",
		Round:     1,
		Nonce:     "n1",
		RepoURL:   "https://github.com/octocat/tds-t1",
		CommitSHA: "abc123",
		PagesURL:  "https://octocat.github.io/tds-t1/",
	}
}

func callbackServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestDefaultBackoff(t *testing.T) {
	var total time.Duration
	for _, d := range notify.DefaultBackoff {
		total += d
	}
	assert.Len(t, notify.DefaultBackoff, 4)
	assert.Equal(t, 15*time.Second, total)
}

func TestNotifyPayload(t *testing.T) {
	var received map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := notify.NewNotifier(time.Second, testBackoff)
	assert.True(t, n.Notify(context.Background(), srv.URL, samplePayload()))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]any{
		"email":      "a@b.com",
		"task":       "t1",
		"round":      float64(1),
		"nonce":      "n1",
		"repo_url":   "https://github.com/octocat/tds-t1",
		"commit_sha": "abc123",
		"pages_url":  "https://octocat.github.io/tds-t1/",
	}, received)
}

func TestNotifyStopsOnFirstOK(t *testing.T) {
	srv, calls := callbackServer(t, http.StatusInternalServerError, http.StatusAccepted, http.StatusOK, http.StatusOK)

	n := notify.NewNotifier(time.Second, testBackoff)
	assert.True(t, n.Notify(context.Background(), srv.URL, samplePayload()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotifyExhausted(t *testing.T) {
	srv, calls := callbackServer(t, http.StatusServiceUnavailable)

	n := notify.NewNotifier(time.Second, testBackoff)

	start := time.Now()
	assert.False(t, n.Notify(context.Background(), srv.URL, samplePayload()))
	elapsed := time.Since(start)

	assert.Equal(t, int32(4), calls.Load())
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestNotifyUnreachable(t *testing.T) {
	srv, _ := callbackServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	n := notify.NewNotifier(time.Second, testBackoff)
	assert.False(t, n.Notify(context.Background(), url, samplePayload()))
}

func TestNotifyTimeoutPerAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := notify.NewNotifier(50*time.Millisecond, testBackoff)
	assert.True(t, n.Notify(context.Background(), srv.URL, samplePayload()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotifyCancelled(t *testing.T) {
	srv, calls := callbackServer(t, http.StatusInternalServerError)

	n := notify.NewNotifier(time.Second, []time.Duration{time.Hour, time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.False(t, n.Notify(ctx, srv.URL, samplePayload()))
	assert.Equal(t, int32(1), calls.Load())
}
