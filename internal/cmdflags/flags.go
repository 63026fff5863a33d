package cmdflags

import (
	"github.com/urfave/cli/v2"
)

const (
	EnvPrefix = "CONNECTIA_"
)

func DatabaseURL(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "database-url",
		Aliases:     []string{"db"},
		Usage:       "Database url (sqlite://path/to/file.db, sqlite::memory: or postgres://...)",
		EnvVars:     []string{EnvPrefix + "DATABASE_URL", "DATABASE_URL"},
		Destination: out,
		Value:       *out,
	}
}

func Verbosity(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "verbosity",
		Aliases:     []string{"v"},
		Usage:       "Log level (trace, debug, info, warn or error)",
		EnvVars:     []string{EnvPrefix + "VERBOSITY"},
		Destination: out,
		Value:       *out,
	}
}

func ConfigFile(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to a config file (.yaml, .yml or .lua)",
		EnvVars:     []string{EnvPrefix + "CONFIG"},
		Destination: out,
		Value:       *out,
	}
}

func SuperUserEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = EnvPrefix + "SUPER_USER"
	}
	return &cli.StringFlag{
		Name:        "super-user-envvar-name",
		Usage:       "Name of the environment variable that holds the super user as name:password. Prefer it over --create-super-user so the password does not show up in the process list",
		Value:       *out,
		Destination: out,
	}
}
