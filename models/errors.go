package models

import (
	"errors"
	"fmt"
)

// Error codes used across the fetch, extraction and normalisation layers.
const (
	ErrCodeTransport         = "TRANSPORT_ERROR"
	ErrCodeTableNotFound     = "TABLE_NOT_FOUND"
	ErrCodeTimestampParse    = "TIMESTAMP_PARSE"
	ErrCodeMissingAnchorDate = "MISSING_ANCHOR_DATE"
	ErrCodeKeyNotFound       = "KEY_NOT_FOUND"
	ErrCodeParse             = "PARSE_ERROR"
	ErrCodeInvalidInput      = "INVALID_INPUT"
)

// Sentinels for errors.Is. A ScrapeError matches the sentinel of its code.
var (
	ErrTransport         = errors.New("transport failure")
	ErrTableNotFound     = errors.New("table not found")
	ErrTimestampParse    = errors.New("unrecognised timestamp")
	ErrMissingAnchorDate = errors.New("time-only row before any dated row")
	ErrKeyNotFound       = errors.New("key not found")
	ErrParse             = errors.New("malformed content")
	ErrInvalidInput      = errors.New("invalid input")
)

var sentinels = map[string]error{
	ErrCodeTransport:         ErrTransport,
	ErrCodeTableNotFound:     ErrTableNotFound,
	ErrCodeTimestampParse:    ErrTimestampParse,
	ErrCodeMissingAnchorDate: ErrMissingAnchorDate,
	ErrCodeKeyNotFound:       ErrKeyNotFound,
	ErrCodeParse:             ErrParse,
	ErrCodeInvalidInput:      ErrInvalidInput,
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel registered for e.Code.
func (e *ScrapeError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// HTTPError is a non-2xx response from the site.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// CodeOf returns the code of the first ScrapeError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
