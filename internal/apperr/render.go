package apperr

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type payload struct {
	Error body `json:"error"`
}

type body struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Write renders err as {"error": {"code", "description"}}. Causes of
// internal errors are logged, not sent.
func Write(w http.ResponseWriter, err error) {
	e := From(err)
	if e.Code == CodeInternal {
		slog.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(payload{Error: body{Code: e.Code, Description: e.Description}})
}
