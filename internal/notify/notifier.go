package notify

import (
	"context"
	"log/slog"
	"net/http"
	"site-deployer/internal/metrics"
	"site-deployer/pkg/api"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBackoff is slept after each failed attempt, so a callback that never
// succeeds is given four attempts over at least 15 seconds.
var DefaultBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}

type Notifier struct {
	client  *resty.Client
	backoff []time.Duration
}

func NewNotifier(timeout time.Duration, backoff []time.Duration) *Notifier {
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	return &Notifier{
		client:  resty.New().SetTimeout(timeout).SetHeader("Content-Type", "application/json"),
		backoff: backoff,
	}
}

// Notify posts payload to url until it answers 200 or the backoff schedule is
// exhausted. It reports whether the callback was delivered.
func (n *Notifier) Notify(ctx context.Context, url string, payload api.EvaluationPayload) bool {
	for attempt, delay := range n.backoff {
		res, err := n.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(url)

		switch {
		case err != nil:
			metrics.IncEvaluationAttempt("error")
			slog.Warn("evaluation callback failed", "url", url, "task", payload.Task, "attempt", attempt+1, "error", err)
		case res.StatusCode() == http.StatusOK:
			metrics.IncEvaluationAttempt("ok")
			metrics.IncEvaluationResult("delivered")
			slog.Info("evaluation callback delivered", "url", url, "task", payload.Task, "attempt", attempt+1)
			return true
		default:
			metrics.IncEvaluationAttempt("rejected")
			slog.Warn("evaluation callback rejected", "url", url, "task", payload.Task, "attempt", attempt+1, "status_code", res.StatusCode(), "body", res.String())
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.IncEvaluationResult("cancelled")
			slog.Error("evaluation callback abandoned", "url", url, "task", payload.Task, "error", ctx.Err())
			return false
		case <-timer.C:
		}
	}

	metrics.IncEvaluationResult("exhausted")
	slog.Error("evaluation callback not delivered, giving up", "url", url, "task", payload.Task, "attempts", len(n.backoff))
	return false
}
