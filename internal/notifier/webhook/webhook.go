// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/newthinker/chartwise/internal/notifier"
)

// Options configures the webhook.
type Options struct {
	URL           string
	Headers       map[string]string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	HTTPClient    *http.Client
}

// Webhook posts events as JSON. 5xx and 429 responses and transport errors
// are retried with exponential backoff; other 4xx responses are not.
type Webhook struct {
	url           string
	headers       map[string]string
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
}

// New creates a new Webhook notifier
func New(opts Options) (*Webhook, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Webhook{
		url:           opts.URL,
		headers:       opts.Headers,
		client:        client,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// Notify posts the event.
func (w *Webhook) Notify(ctx context.Context, event notifier.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("webhook: failed to create request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		for k, v := range w.headers {
			req.Header.Set(k, v)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("webhook: request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("webhook: server returned %d", resp.StatusCode))
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = w.retryInterval
	strategy.MaxElapsedTime = time.Minute

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(strategy, uint64(w.maxRetries)), ctx))
}
