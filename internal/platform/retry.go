package platform

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// BackoffFunc returns how long to wait before retry attempt n (0-based)
type BackoffFunc func(attempt int) time.Duration

// retryable reports whether err is worth another attempt: server side
// failures and network errors. discordgo already waits out 429s itself.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		return restErr.Response != nil && restErr.Response.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// withRetry executes fn and retries transient errors up to attempts extra
// times. Returns nil on success or the last error once attempts are
// exhausted. Respects context cancellation between retries.
func withRetry(ctx context.Context, attempts int, backoff BackoffFunc, fn func() error) error {
	err := fn()
	for attempt := 0; attempt < attempts && retryable(err); attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}

		err = fn()
	}
	return err
}
