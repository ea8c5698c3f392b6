package domain

import (
	"errors"
	"fmt"
)

// ErrorSummaryPrefix is prepended to the message of a failed submission.
const ErrorSummaryPrefix = "An error occurred: "

var (
	// ErrStoreUnavailable is returned when an optional store was not wired.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrCacheDisabled is returned by cache commands when caching is off.
	ErrCacheDisabled = errors.New("response cache disabled")
)

// HTTPStatusError reports a backend response outside the 2xx range.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.StatusCode)
}

// ErrorSummary turns a failed submission into the text shown as its summary.
func ErrorSummary(err error) string {
	if err == nil {
		return ""
	}
	return ErrorSummaryPrefix + err.Error()
}
