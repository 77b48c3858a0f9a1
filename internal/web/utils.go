package web

import (
	"encoding/json"
	"net/http"
)

// =========================
// withJSON задаёт заголовки JSON
// =========================
func withJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
}

// writeJSON отвечает JSON-телом с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	withJSON(w)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отвечает {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
