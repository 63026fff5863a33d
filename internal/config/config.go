// Package config holds the server settings and reads them from yaml or
// lua files. Flags and environment variables are applied on top by the
// cli layer.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andrebq/connectia/internal/luaenv"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Bind           string   `yaml:"bind"`
		Port           int      `yaml:"port"`
		StaticDir      string   `yaml:"static_dir"`
		DatabaseURL    string   `yaml:"database_url"`
		Verbosity      string   `yaml:"verbosity"`
		Admins         []string `yaml:"admins"`
		AdminPolicy    string   `yaml:"admin_policy"`
		InsecureCookie bool     `yaml:"insecure_cookie"`
		SessionTTL     string   `yaml:"session_ttl"`
		CORSOrigins    []string `yaml:"cors_origins"`
	}

	UnsupportedFormat struct {
		Path string
	}
)

const (
	DefaultPort        = 8080
	DefaultBind        = "0.0.0.0"
	DefaultStaticDir   = "../static"
	DefaultDatabaseURL = "sqlite://connectia.db"
	DefaultVerbosity   = "info"
	DefaultSessionTTL  = "24h"
)

func (u UnsupportedFormat) Error() string {
	return fmt.Sprintf("config file %v must be .yaml, .yml or .lua", u.Path)
}

func Default() Config {
	return Config{
		Bind:        DefaultBind,
		Port:        DefaultPort,
		StaticDir:   DefaultStaticDir,
		DatabaseURL: DefaultDatabaseURL,
		Verbosity:   DefaultVerbosity,
		SessionTTL:  DefaultSessionTTL,
	}
}

// LoadFile reads a config file, the format is picked from the extension.
// Lua files must return a table with the same keys as the yaml format.
func LoadFile(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".lua":
		return loadLua(path)
	}
	return Config{}, UnsupportedFormat{Path: path}
}

func loadYAML(path string) (Config, error) {
	var c Config
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("unable to open config %v, cause %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("unable to parse config %v, cause %w", path, err)
	}
	return c, nil
}

func loadLua(path string) (Config, error) {
	var c Config
	L := luaenv.New()
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return c, fmt.Errorf("unable to run config %v, cause %w", path, err)
	}
	tbl, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return c, fmt.Errorf("config %v must return a table", path)
	}
	if err := gluamapper.Map(tbl, &c); err != nil {
		return c, fmt.Errorf("unable to map config %v, cause %w", path, err)
	}
	return c, nil
}

// Merge returns c with every non-zero field of other applied on top
func (c Config) Merge(other Config) Config {
	if other.Bind != "" {
		c.Bind = other.Bind
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.DatabaseURL != "" {
		c.DatabaseURL = other.DatabaseURL
	}
	if other.Verbosity != "" {
		c.Verbosity = other.Verbosity
	}
	if len(other.Admins) > 0 {
		c.Admins = append([]string(nil), other.Admins...)
	}
	if other.AdminPolicy != "" {
		c.AdminPolicy = other.AdminPolicy
	}
	if other.InsecureCookie {
		c.InsecureCookie = true
	}
	if other.SessionTTL != "" {
		c.SessionTTL = other.SessionTTL
	}
	if len(other.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), other.CORSOrigins...)
	}
	return c
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c Config) SessionDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q, cause %w", c.SessionTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("session ttl must be positive, got %v", d)
	}
	return d, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %v", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database url cannot be empty")
	}
	_, err := c.SessionDuration()
	return err
}
