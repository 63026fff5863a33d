package api

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/andrebq/connectia/auth"
	"github.com/andrebq/connectia/credstore"
	"github.com/andrebq/connectia/internal/logutil"
)

type (
	// Backend is what the HTTP layer needs from auth.Backend
	Backend interface {
		CreateUser(ctx context.Context, username string, passwd auth.PlainText) (credstore.InsertOutcome, error)
		Authenticate(ctx context.Context, username string, passwd auth.PlainText) (*auth.Identity, error)
		LoadIdentity(ctx context.Context, id int64) (*auth.Identity, error)
	}

	SecurityRealm struct {
		backend   Backend
		sessions  auth.SessionStore
		policy    auth.AdminPolicy
		cookie    string
		insecure  bool
		cookieTTL time.Duration
	}

	Option func(*SecurityRealm)

	principalKey byte
)

const (
	DefaultCookieName = "connectia_session"
)

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
	principalCtx  = principalKey(1)
)

// AllowHTTPCookie drops the Secure flag from session cookies, only useful
// when the server is not behind TLS (ie.: local development)
func AllowHTTPCookie(allow bool) Option {
	return func(s *SecurityRealm) { s.insecure = allow }
}

func CookieName(name string) Option {
	return func(s *SecurityRealm) {
		if name != "" {
			s.cookie = name
		}
	}
}

// CookieTTL sets Max-Age on session cookies, zero keeps them as browser
// session cookies
func CookieTTL(ttl time.Duration) Option {
	return func(s *SecurityRealm) { s.cookieTTL = ttl }
}

func NewRealm(backend Backend, sessions auth.SessionStore, policy auth.AdminPolicy, opts ...Option) *SecurityRealm {
	if policy == nil {
		policy = auth.AnyOf(nil)
	}
	s := &SecurityRealm{
		backend:  backend,
		sessions: sessions,
		policy:   policy,
		cookie:   DefaultCookieName,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Protect only calls sensitive if the request carries a valid session,
// the principal is available through PrincipalFrom.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return s.guard(false, sensitive)
}

// RequireAdmin is like Protect but also requires the principal to be an admin
func (s *SecurityRealm) RequireAdmin(sensitive http.Handler) http.Handler {
	return s.guard(true, sensitive)
}

func (s *SecurityRealm) guard(admin bool, sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _, err := s.Identify(r)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if p == nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		if admin && !p.Admin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		sensitive.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Identify returns the principal bound to the request session and the
// session token. A session whose user is gone is dropped and treated as
// absent. A nil principal with a nil error means "anonymous".
func (s *SecurityRealm) Identify(r *http.Request) (*auth.Principal, string, error) {
	ctx := r.Context()
	tk := s.token(r)
	if tk == "" {
		return nil, "", nil
	}
	uid, found, err := s.sessions.Lookup(ctx, tk)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", nil
	}
	id, err := s.backend.LoadIdentity(ctx, uid)
	if err != nil {
		return nil, "", err
	}
	if id == nil {
		log := logutil.GetOrDefault(ctx)
		log.Info().Int64("user.id", uid).Msg("Dropping session of unknown user")
		if err := s.sessions.Drop(ctx, tk); err != nil {
			return nil, "", err
		}
		return nil, "", nil
	}
	admin, err := s.policy.IsAdmin(ctx, *id)
	if err != nil {
		return nil, "", err
	}
	return &auth.Principal{Identity: *id, Admin: admin}, tk, nil
}

func (s *SecurityRealm) token(r *http.Request) string {
	if c, err := r.Cookie(s.cookie); err == nil && c.Value != "" {
		return c.Value
	}
	groups := bearerTokenRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) == 0 {
		return ""
	}
	return groups[1]
}

func (s *SecurityRealm) setCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.insecure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cookieTTL > 0 {
		c.MaxAge = int(s.cookieTTL / time.Second)
	}
	http.SetCookie(w, c)
}

func (s *SecurityRealm) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.insecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalCtx, p)
}

func PrincipalFrom(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalCtx).(*auth.Principal)
	return p
}
