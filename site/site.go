// Package site puts the backend api and the frontend behind one handler
package site

import (
	"net/http"

	"github.com/andrebq/connectia/internal/httpserver"
	"github.com/go-chi/cors"
)

const (
	BackendPrefix = "/backend"
)

// AsHandler mounts backend under /backend and frontend everywhere else.
// When corsOrigins is not empty, cross origin requests from those origins
// are allowed (with credentials), this is only needed when the frontend is
// served by a separate dev server.
func AsHandler(backend, frontend http.Handler, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(BackendPrefix+"/", http.StripPrefix(BackendPrefix, backend))
	if frontend != nil {
		mux.Handle("/", frontend)
	}
	var handler http.Handler = mux
	if len(corsOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httpserver.RequestIDHeader},
			ExposedHeaders:   []string{httpserver.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		})(handler)
	}
	return httpserver.WithRequestLog(handler)
}
