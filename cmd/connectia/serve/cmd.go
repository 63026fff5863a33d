package serve

import (
	"github.com/andrebq/connectia/internal/cmdflags"
	"github.com/andrebq/connectia/internal/config"
	"github.com/andrebq/connectia/internal/httpserver"
	"github.com/andrebq/connectia/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var configFile string
	var databaseURL string
	var superUser string
	var superUserEnvVar string
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the frontend and the backend api",
		Flags: []cli.Flag{
			cmdflags.ConfigFile(&configFile),
			cmdflags.DatabaseURL(&databaseURL),
			cmdflags.SuperUserEnvVar(&superUserEnvVar),
			&cli.StringFlag{
				Name:    "bind",
				Usage:   "Address to listen on",
				EnvVars: []string{cmdflags.EnvPrefix + "BIND"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to serve on (default 8080)",
				EnvVars: []string{cmdflags.EnvPrefix + "PORT"},
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Usage:   "Directory with static files, the frontend index is read from <static-dir>/frontend/index.html (default ../static)",
				EnvVars: []string{cmdflags.EnvPrefix + "STATIC_DIR"},
			},
			&cli.StringFlag{
				Name:        "create-super-user",
				Usage:       "Create (if missing) an admin user given as name:password",
				Destination: &superUser,
			},
			&cli.StringSliceFlag{
				Name:    "admin",
				Usage:   "Username with admin rights (can be repeated)",
				EnvVars: []string{cmdflags.EnvPrefix + "ADMINS"},
			},
			&cli.StringFlag{
				Name:    "admin-policy",
				Usage:   "Lua script defining is_admin(user)",
				EnvVars: []string{cmdflags.EnvPrefix + "ADMIN_POLICY"},
			},
			&cli.BoolFlag{
				Name:    "insecure-cookie",
				Usage:   "Allow session cookies over plain http",
				EnvVars: []string{cmdflags.EnvPrefix + "INSECURE_COOKIE"},
			},
			&cli.StringFlag{
				Name:    "session-ttl",
				Usage:   "How long a session lasts after login (default 24h)",
				EnvVars: []string{cmdflags.EnvPrefix + "SESSION_TTL"},
			},
			&cli.StringSliceFlag{
				Name:    "cors-origin",
				Usage:   "Allow cross origin requests from the given origin (can be repeated)",
				EnvVars: []string{cmdflags.EnvPrefix + "CORS_ORIGINS"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := config.Default()
			if configFile != "" {
				fileCfg, err := config.LoadFile(configFile)
				if err != nil {
					return err
				}
				cfg = cfg.Merge(fileCfg)
				if fileCfg.Verbosity != "" && !ctx.IsSet("verbosity") {
					logutil.Setup(fileCfg.Verbosity, ctx.App.ErrWriter)
				}
			}
			cfg = cfg.Merge(fromFlags(ctx, databaseURL))
			if err := cfg.Validate(); err != nil {
				return err
			}

			var su *SuperUser
			var err error
			if superUser != "" {
				su, err = ParseSuperUser(superUser)
			} else {
				su, err = SuperUserFromEnv(ctx.Context, superUserEnvVar, nil, nil)
			}
			if err != nil {
				return err
			}

			handler, closer, err := Build(ctx.Context, cfg, su, nil)
			if err != nil {
				return err
			}
			defer closer.Close()
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("static_dir", cfg.StaticDir).Str("addr", cfg.Addr()).Msg("Serving connectia")
			return httpserver.Serve(ctx.Context, cfg.Addr(), handler)
		},
	}
}

// fromFlags collects only the flags that were explicitly given
func fromFlags(ctx *cli.Context, databaseURL string) config.Config {
	var c config.Config
	if ctx.IsSet("bind") {
		c.Bind = ctx.String("bind")
	}
	if ctx.IsSet("port") {
		c.Port = ctx.Int("port")
	}
	if ctx.IsSet("static-dir") {
		c.StaticDir = ctx.String("static-dir")
	}
	if ctx.IsSet("database-url") {
		c.DatabaseURL = databaseURL
	}
	if ctx.IsSet("admin") {
		c.Admins = ctx.StringSlice("admin")
	}
	if ctx.IsSet("admin-policy") {
		c.AdminPolicy = ctx.String("admin-policy")
	}
	c.InsecureCookie = ctx.Bool("insecure-cookie")
	if ctx.IsSet("session-ttl") {
		c.SessionTTL = ctx.String("session-ttl")
	}
	if ctx.IsSet("cors-origin") {
		c.CORSOrigins = ctx.StringSlice("cors-origin")
	}
	return c
}
