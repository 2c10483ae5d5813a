// Package llm defines the language-model port consumed by every component
// that needs text generation, plus the retry helper that wraps each call with
// a timeout and bounded exponential backoff.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Failure taxonomy for model calls. Providers classify SDK errors into one of
// these two; callers only ever branch on transient vs. not.
var (
	// ErrTransient marks overload / rate-limit / unavailable failures that
	// are worth retrying.
	ErrTransient = errors.New("model temporarily unavailable")

	// ErrUnexpected marks everything else; retrying will not help.
	ErrUnexpected = errors.New("unexpected model failure")
)

// Client abstracts a call to a generative text model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options bound a single logical Generate call.
type Options struct {
	Timeout    time.Duration // per-attempt timeout
	MaxRetries int           // retries after the first attempt, transient failures only
	BaseDelay  time.Duration // first backoff delay, doubled per retry
}

// DefaultOptions mirrors the request options the production deployment uses.
func DefaultOptions() Options {
	return Options{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
	}
}

// Generate invokes the client with per-attempt timeouts, retrying transient
// failures with exponential backoff. The last error is returned once the
// retry budget is exhausted.
func Generate(ctx context.Context, c Client, prompt string, opts Options) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: no client configured", ErrUnexpected)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultOptions().BaseDelay
	}

	delay := opts.BaseDelay
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
			}
			delay *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		text, err := c.Generate(attemptCtx, prompt)
		cancel()
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		lastErr = err
		if !errors.Is(err, ErrTransient) {
			return "", err
		}
	}
	return "", lastErr
}

// IsTransient reports whether the error belongs to the retryable class.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
