package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/atlekbai/metaquery/internal/codec"
	"github.com/atlekbai/metaquery/internal/source"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

const (
	codeModelNotFound   = "MODEL_NOT_FOUND"
	codeInvalidDocument = "INVALID_DOCUMENT"
	codeInvalidQuery    = "INVALID_QUERY"
	codeInvalidParam    = "INVALID_PARAM"
	codeExecutionFailed = "EXECUTION_FAILED"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// writeBody writes an already encoded payload.
func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func writeNotFound(w http.ResponseWriter, details string) {
	writeError(w, http.StatusNotFound, codeModelNotFound, "Model not found", details)
}

// writeQueryError maps a query failure to a response. Decode failures and
// malformed queries are the caller's fault; execution failures are ours.
func writeQueryError(w http.ResponseWriter, err error) {
	var decodeErr *codec.DecodeError
	var execErr *source.ExecutionError
	switch {
	case errors.As(err, &decodeErr):
		writeError(w, http.StatusBadRequest, codeInvalidDocument, "Query document could not be read", err.Error())
	case errors.As(err, &execErr):
		slog.Error("query execution failed", "op", execErr.Op, "error", execErr.Err)
		writeError(w, http.StatusInternalServerError, codeExecutionFailed, "Query execution failed", err.Error())
	default:
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "Query is invalid", err.Error())
	}
}
