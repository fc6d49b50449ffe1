package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/logging"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(&buf, "warn")
	assert.Equal(t, log.WarnLevel, l.GetLevel())

	l.Info("hidden")
	l.Warn("shown", "profile", "work")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, logging.Prefix)
	assert.Contains(t, out, "profile=work")
}

func TestNew_UnknownLevel(t *testing.T) {
	l := logging.New(&bytes.Buffer{}, "chatty")
	assert.Equal(t, log.InfoLevel, l.GetLevel())
}

func TestToFile(t *testing.T) {
	prev := log.Default()
	path := filepath.Join(t.TempDir(), "logs", "gcloud-switch.log")

	restore, err := logging.ToFile(path, "debug")
	require.NoError(t, err)
	log.Debug("check finished", "account", "a@x.com")
	require.NoError(t, restore())
	assert.Same(t, prev, log.Default())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "check finished")
	assert.Contains(t, string(data), "account=a@x.com")
}
