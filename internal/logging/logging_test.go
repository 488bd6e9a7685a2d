package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONLinesAndReadsThemBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studypilot.log")
	logger, flush := New(Options{File: path})

	logger.Info("generation started", zap.String("kind", "quiz"))
	logger.Warn("generation failed", zap.String("kind", "quiz"), zap.Int("attempt", 2))
	logger.Debug("dropped at info level")
	require.NoError(t, flush())

	all, err := ReadEntries(path, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "generation failed", all[0].Message, "newest first")
	assert.Equal(t, "WARN", all[0].Level)
	assert.Equal(t, float64(2), all[0].Fields["attempt"])

	warns, err := ReadEntries(path, "warn", 10)
	require.NoError(t, err)
	assert.Len(t, warns, 1)
}

func TestNew_VerboseConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, flush := New(Options{Verbose: true, Console: &buf})
	logger.Debug("retrying generation")
	_ = flush()
	assert.Contains(t, buf.String(), "retrying generation")
}

func TestNew_NopWithoutOutputs(t *testing.T) {
	logger, flush := New(Options{})
	logger.Info("nothing")
	assert.NoError(t, flush())
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "none.log"), "", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
