package middleware

import (
	"encoding/json"
	"net/http"
)

// errorResponse writes {"error": message}. Middleware rejects before any
// handler ran, so the header is never written twice.
func errorResponse(w http.ResponseWriter, status int, message string) {
	body, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
