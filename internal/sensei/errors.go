package sensei

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the backend answers 401 while a token
// was attached to the request. errors.Is(err, ErrSessionExpired) works on the
// wrapping *APIError.
var ErrSessionExpired = errors.New("session expired")

// ErrorKind classifies request failures.
type ErrorKind int

const (
	// KindNetwork covers transport-level failures (DNS, refused, timeout).
	KindNetwork ErrorKind = iota
	// KindHTTP covers non-2xx responses other than token expiry.
	KindHTTP
	// KindUnauthorized covers a 401 received with a previously present token.
	KindUnauthorized
	// KindDecode covers JSON parsing failures on an otherwise successful response.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindUnauthorized:
		return "unauthorized"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// APIError is the single error type produced by the request wrapper. Body
// carries the raw response body when the backend sent one, so callers can
// surface backend validation messages (e.g. a duplicate project name)
// verbatim.
type APIError struct {
	Kind   ErrorKind
	Status int
	Body   string
	err    error
}

func (e *APIError) Error() string {
	switch {
	case e.Body != "":
		return e.Body
	case e.err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.err)
	default:
		return fmt.Sprintf("API returned %d", e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.err
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, err: err}
}

func decodeError(err error) *APIError {
	return &APIError{Kind: KindDecode, err: err}
}
