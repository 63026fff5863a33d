package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "connectia.yaml", `
port: 9090
static_dir: /srv/static
database_url: postgres://db/connectia
admins: [root, ops]
insecure_cookie: true
session_ttl: 30m
cors_origins:
  - http://localhost:3000
`)
	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 9090, c.Port)
	require.Equal(t, "/srv/static", c.StaticDir)
	require.Equal(t, "postgres://db/connectia", c.DatabaseURL)
	require.Equal(t, []string{"root", "ops"}, c.Admins)
	require.True(t, c.InsecureCookie)
	require.Equal(t, []string{"http://localhost:3000"}, c.CORSOrigins)

	merged := Default().Merge(c)
	require.Equal(t, DefaultBind, merged.Bind)
	require.Equal(t, DefaultVerbosity, merged.Verbosity)
	require.Equal(t, "0.0.0.0:9090", merged.Addr())
	ttl, err := merged.SessionDuration()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, ttl)
	require.NoError(t, merged.Validate())
}

func TestLoadYAMLUnknownField(t *testing.T) {
	path := writeFile(t, "bad.yml", `prot: 9090`)
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadLua(t *testing.T) {
	path := writeFile(t, "connectia.lua", `
local admins = {}
for _, n in ipairs({"root", "ops"}) do
	table.insert(admins, n)
end
return {
	port = 8181,
	static_dir = "./web",
	admins = admins,
	admin_policy = "policy.lua",
	session_ttl = "1h",
	verbosity = "debug",
}
`)
	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 8181, c.Port)
	require.Equal(t, "./web", c.StaticDir)
	require.Equal(t, []string{"root", "ops"}, c.Admins)
	require.Equal(t, "policy.lua", c.AdminPolicy)
	require.Equal(t, "1h", c.SessionTTL)
	require.Equal(t, "debug", c.Verbosity)
}

func TestLoadLuaMustReturnTable(t *testing.T) {
	path := writeFile(t, "connectia.lua", `port = 10`)
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := LoadFile("connectia.toml")
	require.ErrorAs(t, err, &UnsupportedFormat{})
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	c.Port = 0
	require.Error(t, c.Validate())
	c = Default()
	c.SessionTTL = "forever"
	require.Error(t, c.Validate())
	c.SessionTTL = "-1h"
	require.Error(t, c.Validate())
}
