package httpserver

import (
	"net/http"
	"regexp"
	"time"

	"github.com/andrebq/connectia/internal/logutil"
	"github.com/google/uuid"
)

type (
	statusRecorder struct {
		http.ResponseWriter
		status int
	}
)

const (
	RequestIDHeader = "X-Request-ID"
)

var (
	validRequestID = regexp.MustCompile(`^[a-zA-Z0-9\-]{1,64}$`)
)

// WithRequestLog tags each request with an id (X-Request-ID, accepted from
// the client when it looks sane), puts a logger carrying that id in the
// request context and logs the outcome once the handler returns.
// Panics are logged and turned into a 500.
func WithRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		log := logutil.GetOrDefault(r.Context()).With().Str("request.id", id).Logger()
		ctx := logutil.WithLogger(r.Context(), log)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if rv := recover(); rv != nil {
				log.Error().Interface("panic", rv).Str("path", r.URL.Path).Msg("Handler panic")
				http.Error(rec, "internal server error", http.StatusInternalServerError)
			}
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("elapsed", time.Since(start)).
				Msg("Request")
		}()
		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
