package serve

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/connectia/auth"
	authapi "github.com/andrebq/connectia/auth/api"
	"github.com/andrebq/connectia/internal/config"
	"github.com/andrebq/connectia/internal/logutil"
	"github.com/andrebq/connectia/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

var fastHasher = auth.NewHasher(auth.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}, nil)

func TestParseSuperUser(t *testing.T) {
	su, err := ParseSuperUser("root:p4ss:with:colons")
	require.NoError(t, err)
	require.Equal(t, "root", su.Username)
	require.Equal(t, "p4ss:with:colons", string(su.Password))

	for _, bad := range []string{"", "root", ":pw", "root:"} {
		_, err := ParseSuperUser(bad)
		require.ErrorIs(t, err, errInvalidSuperUser, bad)
	}
}

func TestSuperUserFromEnv(t *testing.T) {
	env := map[string]string{"SU": "root:pw"}
	get := func(k string) string { return env[k] }
	unset := func(k string) error { delete(env, k); return nil }

	su, err := SuperUserFromEnv(context.Background(), "SU", get, unset)
	require.NoError(t, err)
	require.Equal(t, "root", su.Username)
	_, present := env["SU"]
	require.False(t, present, "reading the super user should remove it from the environment")

	su, err = SuperUserFromEnv(context.Background(), "SU", get, unset)
	require.NoError(t, err)
	require.Nil(t, su)
}

func TestSuperUserFromEnvUnsetFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logutil.WithLogger(context.Background(), zerolog.New(buf))
	get := func(string) string { return "root:pw" }
	unset := func(string) error { return errors.New("read-only environment") }

	su, err := SuperUserFromEnv(ctx, "SU", get, unset)
	require.NoError(t, err)
	require.Equal(t, "root", su.Username)
	require.Contains(t, buf.String(), "read-only environment")
	require.NotContains(t, buf.String(), "root:pw")
}

func TestBuild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir, cleanup := testutil.StaticDir(t, map[string]string{
		"frontend/index.html": `<h1>connectia</h1>`,
	})
	defer cleanup()
	policy := filepath.Join(dir, "policy.lua")
	require.NoError(t, os.WriteFile(policy, []byte(`function is_admin(user) return user.username == "lua-admin" end`), 0644))

	cfg := config.Default()
	cfg.DatabaseURL = "sqlite::memory:"
	cfg.StaticDir = dir
	cfg.InsecureCookie = true
	cfg.AdminPolicy = policy
	cfg.Admins = []string{"ops"}

	su, err := ParseSuperUser("root:secret")
	require.NoError(t, err)
	handler, closer, err := Build(ctx, cfg, su, fastHasher)
	require.NoError(t, err)
	defer closer.Close()

	apitest.Handler(handler).Get("/").Expect(t).Status(http.StatusOK).Body(`<h1>connectia</h1>`).End()

	res := apitest.Handler(handler).
		Post("/backend/login").
		JSON(`{"username": "root", "password": "secret"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
	var tk string
	for _, c := range res.Response.Cookies() {
		if c.Name == authapi.DefaultCookieName {
			tk = c.Value
			require.False(t, c.Secure)
			require.Greater(t, c.MaxAge, 0)
		}
	}
	require.NotEmpty(t, tk)
	apitest.Handler(handler).
		Get("/backend/current-user").
		Cookie(authapi.DefaultCookieName, tk).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.admin", true)).
		End()
	for _, u := range []string{"lua-admin", "plain"} {
		apitest.Handler(handler).
			Post("/backend/create_user").
			Cookie(authapi.DefaultCookieName, tk).
			JSON(map[string]string{"username": u, "password": u + "-pw"}).
			Expect(t).
			Status(http.StatusOK).
			End()
	}
	for u, admin := range map[string]bool{"lua-admin": true, "plain": false} {
		res := apitest.Handler(handler).
			Post("/backend/login").
			JSON(map[string]string{"username": u, "password": u + "-pw"}).
			Expect(t).
			Status(http.StatusOK).
			End()
		var utk string
		for _, c := range res.Response.Cookies() {
			if c.Name == authapi.DefaultCookieName {
				utk = c.Value
			}
		}
		apitest.Handler(handler).
			Get("/backend/current-user").
			Header("Authorization", "Bearer "+utk).
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Equal("$.admin", admin)).
			End()
	}
}

func TestBuildFailures(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.DatabaseURL = "sqlite::memory:"
	cfg.StaticDir = filepath.Join(t.TempDir(), "missing")
	_, _, err := Build(ctx, cfg, nil, fastHasher)
	require.Error(t, err)

	cfg.DatabaseURL = "mysql://nope"
	_, _, err = Build(ctx, cfg, nil, fastHasher)
	require.Error(t, err)
}
