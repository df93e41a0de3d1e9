// pkg/retry/retry.go - functions for retrying actions with exponential backoff.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/appbundle/pkg/logging"
)

// NonRetryableError marks an error that must be returned immediately.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string { return e.Err.Error() }
func (e NonRetryableError) Unwrap() error { return e.Err }

// retryable is implemented by errors that know whether another attempt can
// help (download.TransferError does).
type retryable interface {
	Retryable() bool
}

// RetryConfig defines the configuration for retry attempts
type RetryConfig struct {
	MaxRetries      int // total attempts, minimum 1
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultConfig is used for installer downloads.
func DefaultConfig(attempts int) RetryConfig {
	return RetryConfig{MaxRetries: attempts, InitialInterval: time.Second, Multiplier: 2.0}
}

func shouldStop(err error) bool {
	var nonRetryable NonRetryableError
	if errors.As(err, &nonRetryable) {
		return true
	}
	var r retryable
	if errors.As(err, &r) {
		return !r.Retryable()
	}
	return false
}

// Retry retries a given function with exponential backoff. The last error
// is returned unchanged so callers can inspect its kind.
func Retry(ctx context.Context, config RetryConfig, action func() error) error {
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	interval := config.InitialInterval

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = action(); err == nil {
			return nil
		}

		if shouldStop(err) {
			logging.LogStructured(logging.LevelDebug,
				fmt.Sprintf("Non-retryable error encountered: %s", err.Error()),
				map[string]interface{}{
					"attempt":       attempt,
					"non_retryable": true,
				})
			return err
		}

		if attempt == attempts {
			logging.LogStructured(logging.LevelWarn,
				fmt.Sprintf("Attempt %d/%d failed: %s. No more retries.", attempt, attempts, err.Error()),
				map[string]interface{}{
					"attempt":       attempt,
					"max_attempts":  attempts,
					"final_failure": true,
				})
			break
		}

		logging.LogStructured(logging.LevelWarn,
			fmt.Sprintf("Attempt %d/%d failed: %s. Retrying in %s...", attempt, attempts, err.Error(), interval),
			map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": attempts,
				"retry_delay":  interval.String(),
			})

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), err))
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * config.Multiplier)
	}

	return err
}
