package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "k=v")
}

func TestOpenFile_CreatesDirAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "finder.log")

	log, closer, err := OpenFile(path, "info")
	require.NoError(t, err)
	log.Info().Msg("first")
	require.NoError(t, closer.Close())

	log, closer, err = OpenFile(path, "info")
	require.NoError(t, err)
	log.Info().Msg("second")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "first")
	require.Contains(t, lines[1], "second")
}

func TestOpenFile_EmptyPathIsSilent(t *testing.T) {
	log, closer, err := OpenFile("  ", "debug")
	require.NoError(t, err)
	log.Info().Msg("nowhere")
	require.NoError(t, closer.Close())
}
