package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/payload"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, payload.ErrorResponse{Error: message, Code: code})
}

// writeInternalError logs err and answers 500. The cause is only exposed in development.
func (h *Handler) writeInternalError(w http.ResponseWriter, err error, message, code string) {
	h.logger.Error().Err(err).Str("code", code).Msg(message)

	body := payload.ErrorResponse{Error: message, Code: code}
	if h.config.Development {
		body.Details = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// writeVerificationError answers in the {success:false,error} shape used by the email
// verification endpoints.
func writeVerificationError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.SuccessResponse{Success: false, Error: message})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched so that required
// field validation reports what is missing.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}
