// Package httputil writes JSON responses and the shared error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "inheritx/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	Reason           string `json:"reason,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status and writes the error envelope.
// Internal failures never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorReason(w, err, "")
}

// WriteErrorReason is WriteError with a machine-readable reason attached.
func WriteErrorReason(w http.ResponseWriter, err error, reason string) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code), Reason: reason}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = describe(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

func describe(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
