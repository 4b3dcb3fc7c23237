package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hugr-lab/airportlog/logbook"
	"github.com/hugr-lab/airportlog/refdata"
)

// errBadRequest marks client errors raised by the handlers themselves.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// statusOf maps an error to its HTTP status and public error code.
func statusOf(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, logbook.ErrNoFlightsTable),
		errors.Is(err, logbook.ErrMissingColumn):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, refdata.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "catalog_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError writes err as a JSON error body. Internal errors carry no
// description.
func writeError(w http.ResponseWriter, err error) {
	code, name := statusOf(err)
	body := errorBody{Error: name}
	if code != http.StatusInternalServerError {
		body.Description = err.Error()
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
