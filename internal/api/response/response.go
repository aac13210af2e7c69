// Package response writes the API's JSON envelopes. Success bodies are
// wrapped as {"data": ...}, listings add a "meta" block, and failures
// use {"error": {"code", "message", "details"}}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// PaginationMeta describes the page window of a listing response.
type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

type payload struct {
	Data any             `json:"data"`
	Meta *PaginationMeta `json:"meta,omitempty"`
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, payload{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, payload{Data: data})
}

func Accepted(w http.ResponseWriter, data any) {
	write(w, http.StatusAccepted, payload{Data: data})
}

// Collection writes a data envelope with pagination meta alongside it.
func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	write(w, http.StatusOK, payload{Data: data, Meta: &meta})
}

// Error writes an error envelope. code is a stable machine-readable
// string such as NOT_FOUND or BID_EXCEEDS_PRICE; details carries
// optional structured context, e.g. the current and requested statuses
// on a state conflict.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	write(w, status, errorPayload{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
