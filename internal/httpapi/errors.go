package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// kinded errors carry a machine readable classification.
type kinded interface {
	Kind() string
}

const (
	kindValidation  = "validation"
	kindInternal    = "internal"
	kindUnavailable = "backend_unavailable"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

// errorStatus maps err to a status code and kind. Errors that do not
// implement HTTPError are internal.
func errorStatus(err error) (int, string) {
	status, kind := http.StatusInternalServerError, kindInternal
	var he HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
	}
	var k kinded
	if errors.As(err, &k) && k.Kind() != "" {
		kind = k.Kind()
	}
	return status, kind
}

func writeServiceError(w http.ResponseWriter, err error) int {
	status, kind := errorStatus(err)
	writeJSONError(w, status, err.Error(), kind)
	return status
}
