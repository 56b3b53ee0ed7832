package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
)

// NewIndexHandler serves the entry document of staticDir.
func NewIndexHandler(staticDir string) http.HandlerFunc {
	index := filepath.Join(staticDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	}
}

// NewStaticHandler serves any file below staticDir.
func NewStaticHandler(staticDir string) http.Handler {
	return http.FileServer(http.Dir(staticDir))
}

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
