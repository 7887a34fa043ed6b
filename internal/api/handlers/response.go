package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response body for every API endpoint.
// error_code is 0 on success and a non-zero application code on failure.
type envelope struct {
	ErrorCode int               `json:"error_code"`
	Message   string            `json:"message"`
	Data      interface{}       `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Application error codes surfaced in the envelope.
const (
	codeOK            = 0
	codeBadRequest    = 1
	codeUnauthorized  = 2
	codeNotFound      = 3
	codeTimeout       = 4
	codePayloadLimit  = 5
	codeInternalError = 10
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{ErrorCode: codeOK, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status, errorCode int, message string) {
	writeJSON(w, status, envelope{ErrorCode: errorCode, Message: message})
}

func respondValidation(w http.ResponseWriter, fieldErrors map[string]string) {
	writeJSON(w, http.StatusBadRequest, envelope{
		ErrorCode: codeBadRequest,
		Message:   "validation failed",
		Errors:    fieldErrors,
	})
}
