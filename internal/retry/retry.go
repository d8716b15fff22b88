package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure RetrySearcher implements model.Searcher.
var _ model.Searcher = (*RetrySearcher)(nil)

// RetrySearcher is a decorator that retries transient search failures with
// exponential backoff and jitter before giving up.
type RetrySearcher struct {
	inner      model.Searcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySearcher wraps a Searcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetrySearcher(inner model.Searcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySearcher {
	return &RetrySearcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Search runs the wrapped search, retrying on transient errors.
func (s *RetrySearcher) Search(ctx context.Context) ([]model.SearchResult, error) {
	results, err := s.inner.Search(ctx)
	if err == nil {
		return results, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt, lastErr)

		s.logger.Warn("retrying search after transient error",
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		results, err = s.inner.Search(ctx)
		if err == nil {
			return results, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (s *RetrySearcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Never retry a cancelled context.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}

	// Network and DNS errors are retryable.
	return true
}
