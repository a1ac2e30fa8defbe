package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/go-resty/resty/v2"
)

// ErrNonRetryable marks a collaborator failure that will not heal on retry.
var ErrNonRetryable = errors.New("non-retryable")

// StatusError is a non-2xx reply from a collaborator.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.Code, e.Body)
}

// IsRetryable reports whether a collaborator call may succeed if repeated.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, ErrNonRetryable)
}

// classifyCall turns a resty outcome into nil, a retryable error, or an error
// wrapping ErrNonRetryable. Timeouts, 5xx and 429 are retryable; refused
// connections and other 4xx replies are not.
func classifyCall(svc string, resp *resty.Response, err error) error {
	if err != nil {
		return classifyNetErr(svc, err)
	}

	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	statusErr := &StatusError{Service: svc, Code: code, Body: truncate(resp.String(), 512)}
	if code == http.StatusTooManyRequests || code >= 500 {
		return statusErr
	}
	return fmt.Errorf("%w: %w", ErrNonRetryable, statusErr)
}

// classifyNetErr wraps a transport failure. Timeouts stay retryable, a refused
// connection wraps ErrNonRetryable.
func classifyNetErr(svc string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s timed out: %w", svc, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%s unreachable: %w: %w", svc, ErrNonRetryable, err)
	}
	return fmt.Errorf("%s request: %w", svc, err)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
