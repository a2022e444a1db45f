package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error is an I/O or configuration failure talking to a gateway.
// Retryable errors (timeouts, 5xx, rate limits) feed the payout
// scheduler's retry counter; terminal ones need operator action.
type Error struct {
	Gateway   string
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s gateway: %s: %v", e.Gateway, e.Message, e.Err)
	}
	return fmt.Sprintf("%s gateway: %s", e.Gateway, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a gateway error worth retrying.
// Timeouts and cancellations count as retryable even when untyped.
func IsRetryable(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// retryableStatus classifies an HTTP status from a gateway API.
func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

func newIOError(gatewayName string, err error) *Error {
	return &Error{
		Gateway:   gatewayName,
		Code:      "IO_ERROR",
		Message:   "request failed",
		Retryable: true,
		Err:       err,
	}
}

func newStatusError(gatewayName string, status int, body string) *Error {
	return &Error{
		Gateway:   gatewayName,
		Code:      fmt.Sprintf("HTTP_%d", status),
		Message:   fmt.Sprintf("unexpected status %d: %s", status, body),
		Retryable: retryableStatus(status),
	}
}

func newConfigError(gatewayName, message string) *Error {
	return &Error{
		Gateway:   gatewayName,
		Code:      "MISCONFIGURED",
		Message:   message,
		Retryable: false,
	}
}
