package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/andrebq/connectia/auth"
	authapi "github.com/andrebq/connectia/auth/api"
	"github.com/andrebq/connectia/credstore"
	"github.com/andrebq/connectia/internal/config"
	"github.com/andrebq/connectia/internal/logutil"
	"github.com/andrebq/connectia/site"
	"github.com/andrebq/connectia/spa"
)

type (
	closers []io.Closer
)

// Build wires every component described by cfg. The returned closer must be
// called once the handler is no longer in use.
func Build(ctx context.Context, cfg config.Config, su *SuperUser, hasher auth.PasswordHasher) (http.Handler, io.Closer, error) {
	var cl closers
	fail := func(err error) (http.Handler, io.Closer, error) {
		cl.Close()
		return nil, nil, err
	}
	log := logutil.GetOrDefault(ctx)
	ttl, err := cfg.SessionDuration()
	if err != nil {
		return fail(err)
	}

	store, err := credstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fail(err)
	}
	cl = append(cl, store)
	backend := auth.NewBackend(store, hasher)

	admins := append([]string(nil), cfg.Admins...)
	if su != nil {
		outcome, err := backend.CreateUser(ctx, su.Username, su.Password)
		su.Password.Zero()
		if err != nil {
			return fail(fmt.Errorf("unable to create super user %v, cause %w", su.Username, err))
		}
		log.Info().Str("username", su.Username).Stringer("outcome", outcome).Msg("Super user")
		admins = append(admins, su.Username)
	}
	policy := auth.AnyOf{auth.NewStaticAdmins(admins...)}
	if cfg.AdminPolicy != "" {
		lp, err := auth.LoadLuaPolicy(cfg.AdminPolicy)
		if err != nil {
			return fail(err)
		}
		cl = append(cl, closeFunc(lp.Close))
		policy = append(policy, lp)
	}

	sessions, err := auth.InMemorySessionStore(ctx, ttl)
	if err != nil {
		return fail(err)
	}
	cl = append(cl, sessions)
	realm := authapi.NewRealm(backend, sessions, policy,
		authapi.AllowHTTPCookie(cfg.InsecureCookie),
		authapi.CookieTTL(ttl))

	frontend, err := spa.AsHandler(ctx, cfg.StaticDir)
	if err != nil {
		return fail(err)
	}
	return site.AsHandler(authapi.AsHandler(realm), frontend, cfg.CORSOrigins), cl, nil
}

type closeFunc func()

func (c closeFunc) Close() error {
	c()
	return nil
}

// Close runs in reverse order and returns the first error
func (c closers) Close() error {
	var first error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
