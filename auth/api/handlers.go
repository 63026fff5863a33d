// Package api exposes the auth backend over HTTP, routes are relative to
// the mount point (the site mounts them under /backend).
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/andrebq/connectia/auth"
	"github.com/andrebq/connectia/internal/logutil"
	"github.com/julienschmidt/httprouter"
)

type (
	credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	userInfo struct {
		Username string `json:"username"`
		Admin    *bool  `json:"admin,omitempty"`
	}
)

const (
	maxBodySize = 64 * 1024
)

func AsHandler(s *SecurityRealm) http.Handler {
	router := httprouter.New()
	router.HandlerFunc("POST", "/login", s.login)
	router.HandlerFunc("POST", "/logout", s.logout)
	router.HandlerFunc("GET", "/current-user", s.currentUser)
	router.Handler("POST", "/create_user", s.RequireAdmin(http.HandlerFunc(s.createUser)))
	return router
}

func (s *SecurityRealm) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creds, err := readCredentials(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	passwd := auth.PlainText(creds.Password)
	defer passwd.Zero()
	id, err := s.backend.Authenticate(ctx, creds.Username, passwd)
	if err != nil {
		internalError(w, r, err)
		return
	}
	log := logutil.GetOrDefault(ctx)
	if id == nil {
		log.Info().Str("username", creds.Username).Msg("Login failed")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if old := s.token(r); old != "" {
		// never reuse a token provided by the client
		if err := s.sessions.Drop(ctx, old); err != nil {
			internalError(w, r, err)
			return
		}
	}
	tk, err := s.sessions.Bind(ctx, id.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	log.Info().Int64("user.id", id.ID).Str("username", id.Username).Msg("Login")
	s.setCookie(w, tk)
	writeJSON(w, r, userInfo{Username: id.Username})
}

func (s *SecurityRealm) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tk, err := s.Identify(r)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if p == nil {
		s.clearCookie(w)
		http.Error(w, "Not logged in", http.StatusForbidden)
		return
	}
	if err := s.sessions.Drop(ctx, tk); err != nil {
		internalError(w, r, err)
		return
	}
	log := logutil.GetOrDefault(ctx)
	log.Info().Int64("user.id", p.ID).Msg("Logout")
	s.clearCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *SecurityRealm) currentUser(w http.ResponseWriter, r *http.Request) {
	p, _, err := s.Identify(r)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if p == nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	admin := p.Admin
	writeJSON(w, r, userInfo{Username: p.Username, Admin: &admin})
}

func (s *SecurityRealm) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creds, err := readCredentials(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if creds.Username == "" {
		http.Error(w, "username cannot be empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "password cannot be empty", http.StatusBadRequest)
		return
	}
	passwd := auth.PlainText(creds.Password)
	defer passwd.Zero()
	outcome, err := s.backend.CreateUser(ctx, creds.Username, passwd)
	if err != nil {
		internalError(w, r, err)
		return
	}
	log := logutil.GetOrDefault(ctx)
	log.Info().Str("username", creds.Username).Stringer("outcome", outcome).
		Int64("admin.id", PrincipalFrom(ctx).ID).Msg("Create user")
	writeJSON(w, r, userInfo{Username: creds.Username})
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(&c); err != nil {
		return c, errors.New(`invalid request body, expecting {"username": "...", "password": "..."}`)
	}
	return c, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Msg("Unable to write response")
	}
}

// internalError logs err and sends a generic 500, details never reach the client
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	log := logutil.GetOrDefault(r.Context())
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
