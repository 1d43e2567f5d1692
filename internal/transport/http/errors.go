package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

// errorResponse is the plain-error shape used for infrastructure and
// routing failures (404s that aren't domain-shaped, 500s, 403s).
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg, Code: code})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// validationErrorResponse is the response shape for 422s:
// { message, errors: { field: [msg...] } }.
type validationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func writeValidationError(w http.ResponseWriter, status int, message string, fieldErrors map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(validationErrorResponse{Message: message, Errors: fieldErrors})
}

// writeFieldError is a convenience for the common single-field case.
func writeFieldError(w http.ResponseWriter, status int, field, message string) {
	writeValidationError(w, status, message, map[string][]string{field: {message}})
}

// dataEnvelope wraps every successful response body in { data: ... }.
type dataEnvelope struct {
	Data any `json:"data"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataEnvelope{Data: data})
}
