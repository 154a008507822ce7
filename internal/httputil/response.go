package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes a JSON response with the given status code. The
// payload is marshaled first so an encoding failure cannot produce a
// half-written body after headers went out.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// RespondError writes a JSON error envelope.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorBody{Error: message, Code: status})
}
