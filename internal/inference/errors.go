package inference

import (
	"errors"
	"net/http"
	"strconv"
)

// Failure kinds reported alongside HTTP status codes.
const (
	KindBackendUnavailable = "backend_unavailable"
	KindBackendError       = "backend_error"
	KindInvalidResponse    = "invalid_response"
	KindValidation         = "validation"
	KindInternal           = "internal"
)

// unavailableError signals that the backend could not be reached (refused
// connection, DNS failure, timeout, open circuit). Mapped to 503.
type unavailableError struct {
	msg   string
	cause error
}

func (e unavailableError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}
func (e unavailableError) Unwrap() error   { return e.cause }
func (e unavailableError) StatusCode() int { return http.StatusServiceUnavailable }
func (e unavailableError) Kind() string    { return KindBackendUnavailable }

// ErrBackendUnavailable constructs an unavailable error; cause may be nil.
func ErrBackendUnavailable(msg string, cause error) error {
	return unavailableError{msg: msg, cause: cause}
}

// IsBackendUnavailable reports whether err means the backend was unreachable.
func IsBackendUnavailable(err error) bool {
	var u unavailableError
	return errors.As(err, &u)
}

// backendError signals that the backend answered but with a failure status or
// a payload we cannot use. Mapped to 502 so it stays distinct from our own 500s.
type backendError struct {
	upstream int // backend HTTP status, 0 when the status was fine
	msg      string
	kind     string
}

func (e backendError) Error() string {
	if e.upstream != 0 {
		return "backend returned " + strconv.Itoa(e.upstream) + ": " + e.msg
	}
	return e.msg
}
func (e backendError) StatusCode() int { return http.StatusBadGateway }
func (e backendError) Kind() string    { return e.kind }

// UpstreamStatus returns the backend HTTP status carried by err, or 0.
func UpstreamStatus(err error) int {
	var be backendError
	if errors.As(err, &be) {
		return be.upstream
	}
	return 0
}

// ErrBackendStatus reports a non-success backend status with its body.
func ErrBackendStatus(status int, body string) error {
	return backendError{upstream: status, msg: body, kind: KindBackendError}
}

// ErrInvalidResponse reports a success status whose payload lacks the reply.
func ErrInvalidResponse(detail string) error {
	msg := "invalid response from backend"
	if detail != "" {
		msg += ": " + detail
	}
	return backendError{msg: msg, kind: KindInvalidResponse}
}

// IsBackendError reports whether the backend answered with a failure or an
// unusable payload.
func IsBackendError(err error) bool {
	var be backendError
	return errors.As(err, &be)
}

// IsInvalidResponse reports whether the backend payload was malformed.
func IsInvalidResponse(err error) bool {
	var be backendError
	return errors.As(err, &be) && be.kind == KindInvalidResponse
}

// requestError rejects a generate request before any backend call.
type requestError struct{ msg string }

func (e requestError) Error() string   { return e.msg }
func (e requestError) StatusCode() int { return http.StatusBadRequest }
func (e requestError) Kind() string    { return KindValidation }

// internalError wraps bugs in this service (for example a recovered panic).
type internalError struct{ msg string }

func (e internalError) Error() string   { return e.msg }
func (e internalError) StatusCode() int { return http.StatusInternalServerError }
func (e internalError) Kind() string    { return KindInternal }
