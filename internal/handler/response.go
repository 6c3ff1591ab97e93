package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/middleware"
)

// ErrorResponse is the envelope for every error the API returns.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// writeJSON encodes body as the JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// badRequest rejects a request before it reaches the service layer
// (e.g. malformed path parameter or body).
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody("bad_request", message))
}

// writeServiceError maps a service error onto the API error envelope.
// The check order matters: a lookup that matched nothing is both
// ErrNotFound and ErrAmbiguousMatch and must surface as 404.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, notFound string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", notFound))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", unwrapMessage(err)))
	case errors.Is(err, domain.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, errorBody("duplicate_name", domain.ErrDuplicateName.Error()))
	case errors.Is(err, domain.ErrAmbiguousMatch):
		writeJSON(w, http.StatusConflict, errorBody("ambiguous_match", domain.ErrAmbiguousMatch.Error()))
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.TagService.AddTag: validation error: name is required" → "name is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok && after != "" {
		return after
	}
	return msg
}

// decodeBody decodes the JSON request body into dst. It writes the error
// response itself and reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		badRequest(w, "request body is required")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", "request body too large"))
			return false
		}
		badRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// actingUser returns the user id placed in the context by
// middleware.NewActingUser, writing 400 when it is missing.
func actingUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		badRequest(w, middleware.UserIDHeader+" header is required")
		return 0, false
	}
	return id, true
}
