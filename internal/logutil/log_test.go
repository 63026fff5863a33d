package logutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	buf := &bytes.Buffer{}
	logger := Setup("warn", buf)
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	logger.Info().Msg("hidden")
	logger.Warn().Msg("visible")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "visible")

	buf.Reset()
	logger = Setup("chatty", buf)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	require.Contains(t, buf.String(), "Invalid verbosity level")
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	ctx := WithLogger(context.Background(), logger)
	log := GetOrDefault(ctx)
	log.Info().Msg("from context")
	require.True(t, strings.Contains(buf.String(), "from context"))
}

func TestPrintf(t *testing.T) {
	buf := &bytes.Buffer{}
	p := Printf(zerolog.New(buf).Level(zerolog.DebugLevel))
	p.Printf("evicted %d entries", 3)
	require.Contains(t, buf.String(), "evicted 3 entries")
	require.Contains(t, buf.String(), `"level":"debug"`)
}
