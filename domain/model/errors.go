package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("remote resource not found")
	ErrNotModified   = errors.New("remote resource not modified")
	ErrQuotaExceeded = errors.New("remote quota exceeded")
	ErrServer        = errors.New("remote server error")
)

// NetworkError is returned by the platform clients for every non-2xx response.
// CacheControl carries the freshness hints of the response, if any.
type NetworkError struct {
	StatusCode    int
	CacheControl  CacheControl
	QuotaExceeded bool
	Err           error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("network error: status %d", e.StatusCode)
	if e.QuotaExceeded {
		msg += " (quota exceeded)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets callers match on the sentinels above through any amount of wrapping.
func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrNotModified:
		return e.StatusCode == http.StatusNotModified
	case ErrQuotaExceeded:
		return e.QuotaExceeded
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// AsNetworkError unwraps err to a *NetworkError.
func AsNetworkError(err error) (*NetworkError, bool) {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
