package taxbureau

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL      = errors.New("invalid tax bureau URL")
	ErrInvalidResponse = errors.New("invalid tax bureau response")
	ErrHTTP            = errors.New("tax bureau http error")
	ErrInvalidAPIKey   = errors.New("invalid tax bureau API key")
	ErrParse           = errors.New("failed to parse tax bureau response")
	ErrNetwork         = errors.New("tax bureau network error")
)

// HTTPError is returned for non-2xx responses. It matches ErrHTTP with errors.Is.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrHTTP, e.StatusCode)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}

// IsRetryable reports whether err is a transport failure. Only those are retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

func parseError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}
