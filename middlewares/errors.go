package middlewares

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API error body. Middlewares answer before routing,
// so they share the shape of the handlers' errors without importing them.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
