package tts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/audio"
)

const (
	maxRetries     = 3
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 20 * time.Second
)

// StatusError is a non-success HTTP response from a TTS backend.
type StatusError struct {
	Engine string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Engine, e.Code, truncate(e.Body, 200))
}

// retryEngine retries transient synthesis failures with exponential backoff.
type retryEngine struct {
	inner Engine
	log   *zap.SugaredLogger
}

var (
	_ Engine      = (*retryEngine)(nil)
	_ Checker     = (*retryEngine)(nil)
	_ VoiceLister = (*retryEngine)(nil)
)

// WithRetry wraps an engine so that transient failures (network resets, 429s,
// 5xx responses) are retried with backoff and jitter. Permanent failures and
// context cancellation return immediately.
func WithRetry(inner Engine, log *zap.SugaredLogger) Engine {
	return &retryEngine{inner: inner, log: ensureLogger(log)}
}

func (r *retryEngine) Name() string { return r.inner.Name() }

func (r *retryEngine) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			r.log.Warnf("retrying synthesis in %v (attempt %d/%d): %v", delay.Round(time.Millisecond), attempt+1, maxRetries+1, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		buf, err := r.inner.Synthesize(ctx, text)
		if err == nil {
			return buf, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("synthesis failed after %d attempts: %w", maxRetries+1, lastErr)
}

// Check delegates to the wrapped engine when it supports probing.
func (r *retryEngine) Check(ctx context.Context) error {
	if c, ok := r.inner.(Checker); ok {
		return c.Check(ctx)
	}
	return nil
}

// Voices delegates to the wrapped engine when it can enumerate voices.
func (r *retryEngine) Voices(ctx context.Context) ([]string, error) {
	if v, ok := r.inner.(VoiceLister); ok {
		return v.Voices(ctx)
	}
	return nil, nil
}

// retryDelay returns the backoff for an attempt: exponential growth capped at
// maxRetryDelay, plus up to 25% jitter so parallel chunks do not retry in
// lockstep.
func retryDelay(attempt int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<uint(attempt-1))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 4))
	return delay + jitter
}

// IsRetryable reports whether a synthesis error is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrEmptyAudio) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.Code)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return isRetryableStatus(reqErr.HTTPStatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"timeout",
		"deadline exceeded",
		"temporarily unavailable",
		"rate limit",
		"unexpected eof",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
