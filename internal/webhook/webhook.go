// Package webhook delivers completed site runs to a caller-configured
// HTTP endpoint, signed with HMAC-SHA256.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string        `json:"type"` // "run.completed" or "run.failed"
	Domain    string        `json:"domain"`
	Timestamp int64         `json:"timestamp"`
	Run       model.SiteRun `json:"run"`
}

// EventForRun classifies a completed SiteRun into a webhook Event: a
// run that produced zero results (whether from a timeout, a tripped
// breaker, or every leaderboard failing) is reported as failed.
func EventForRun(run model.SiteRun, now int64) Event {
	eventType := "run.completed"
	if len(run.Results) == 0 {
		eventType = "run.failed"
	}
	return Event{Type: eventType, Domain: run.Domain, Timestamp: now, Run: run}
}

// Deliver sends a webhook event synchronously. The request body is
// signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Scout-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "leaderboard-scout-webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Scout-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// retryDelays are the fixed backoff intervals DeliverAsync waits
// between attempts, matched to maxRetries by truncating or repeating
// the last interval.
var retryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// DeliverAsync sends a webhook event asynchronously, retrying up to
// maxRetries additional times on failure.
func DeliverAsync(url, secret string, event Event, maxRetries int) {
	go func() {
		attempts := maxRetries + 1
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				time.Sleep(delayFor(attempt))
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"domain", event.Domain,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"domain", event.Domain,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"domain", event.Domain,
		)
	}()
}

func delayFor(attempt int) time.Duration {
	if attempt < len(retryDelays) {
		return retryDelays[attempt]
	}
	return retryDelays[len(retryDelays)-1]
}
