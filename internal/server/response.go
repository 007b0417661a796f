package server

import (
	"encoding/json"
	"net/http"

	"github.com/small-frappuccino/hookcast/pkg/logging"
)

// apiResponse is the envelope every endpoint answers with, mirroring what
// the composer UI expects: a success flag, a human-readable message on
// failure, and the payload on success.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.ErrorWithErr("encode response", err)
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}
