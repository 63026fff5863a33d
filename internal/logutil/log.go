package logutil

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte

	// Printer adapts a zerolog.Logger to libraries that expect a
	// Printf(format, args...) logger, like bigcache.
	Printer struct {
		logger zerolog.Logger
	}
)

var (
	loggerKey = key(1)
)

// Setup configures the global logger to write human readable output to out.
// An unknown verbosity is reported and replaced by info.
func Setup(verbosity string, out io.Writer) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(verbosity)
	if err != nil || lvl == zerolog.NoLevel {
		logger.Error().Str("verbosity", verbosity).Msg("Invalid verbosity level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	logger = logger.Level(lvl)
	log.Logger = logger
	return logger
}

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// Printf returns a Printer that writes every message at debug level
func Printf(logger zerolog.Logger) Printer {
	return Printer{logger: logger}
}

func (p Printer) Printf(format string, v ...interface{}) {
	p.logger.Debug().Msg(fmt.Sprintf(format, v...))
}
