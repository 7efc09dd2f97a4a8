package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", "loud", "")
	ctx := cli.NewContext(&cli.App{}, set, nil)

	err := setupLogger(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSetupLoggerAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		ctx := cli.NewContext(&cli.App{}, set, nil)
		assert.NoError(t, setupLogger(ctx), "level %s", level)
	}
}

func TestExtractCommandWithMockEmbedder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	text := "Machine learning techniques such as neural networks and support vector machines are used."
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	set := flag.NewFlagSet("extract", flag.ContinueOnError)
	set.Bool("mock-embedder", true, "")
	set.Int("parallelism", 0, "")
	set.String("config", "", "")
	require.NoError(t, set.Parse([]string{path}))
	ctx := cli.NewContext(&cli.App{}, set, nil)

	assert.NoError(t, extractCommand(ctx))
}

func TestCorpusCommandRequiresTwoFiles(t *testing.T) {
	set := flag.NewFlagSet("corpus", flag.ContinueOnError)
	require.NoError(t, set.Parse([]string{"only-one.txt"}))
	ctx := cli.NewContext(&cli.App{}, set, nil)

	err := corpusCommand(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two files")
}
