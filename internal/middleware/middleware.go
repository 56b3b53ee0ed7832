package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

const RequestIDHeader = "X-Request-ID"

// LogRequest logs one line per request and tags the response with a
// request id, reusing the caller's id when it sent one.
func LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		klog.InfoS("Handled request",
			"id", requestID,
			"remote", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(startTime),
		)
	})
}

// CORS permits cross-origin GET and POST requests from origin only.
func CORS(origin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
