package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
	"github.com/thesyncim/latynkatar-e2e/pkg/latynkatar"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"BASE_URL", "HEADLESS", "VIEWPORT", "CLIPBOARD", "PARALLEL", "SEED", "SETTLE_QUIET"} {
		unsetenv(t, k)
	}

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "1920x1080", cfg.Viewport)
	assert.Equal(t, 5*time.Second, cfg.ImplicitWait)
	assert.Equal(t, 30*time.Second, cfg.NavTimeout)
	assert.Equal(t, harness.DefaultStabilizePolicy(), cfg.StabilizePolicy())
	assert.Equal(t, "page", cfg.Clipboard)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Equal(t, "test-results", cfg.ReportDir)
	assert.True(t, cfg.Screenshots)
	assert.Equal(t, latynkatar.NewPage("", ""), cfg.Page())
	assert.ErrorIs(t, cfg.RequireBaseURL(), ErrMissingBaseURL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BASE_URL", "https://latynkatar.org/")
	t.Setenv("HEADLESS", "false")
	t.Setenv("VIEWPORT", "max")
	t.Setenv("SETTLE_QUIET", "250ms")
	t.Setenv("SEED", "1234")
	t.Setenv("PARALLEL", "4")
	t.Setenv("CLIPBOARD", "system")
	t.Setenv("CONVERT_TITLE", "Convert")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.NoError(t, cfg.RequireBaseURL())
	assert.False(t, cfg.Headless)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleQuiet)
	assert.Equal(t, int64(1234), cfg.Seed)
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, `[title="Convert"]`, cfg.Page().Convert().String())

	sc, err := cfg.SessionConfig(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "https://latynkatar.org/", sc.BaseURL)
	assert.True(t, sc.Viewport.Maximized)
	assert.Equal(t, harness.ClipboardSystem, sc.Clipboard)
	assert.NotNil(t, sc.Logger)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"BASE_URL":       "latynkatar.org",
		"VIEWPORT":       "wide",
		"CLIPBOARD":      "x11",
		"PARALLEL":       "0",
		"SETTLE_QUIET":   "20s",
		"IMPLICIT_WAIT":  "0s",
		"LOG_LEVEL":      "chatty",
		"SETTLE_TIMEOUT": "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(New())
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BASE_URL=http://from-dotenv:8080/\nREPORT_DIR=dotenv-results\n"), 0o644))

	unsetenv(t, "BASE_URL")
	t.Setenv("REPORT_DIR", "env-results")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8080/", cfg.BaseURL)
	assert.Equal(t, "env-results", cfg.ReportDir)

	assert.Error(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadCatalog(t *testing.T) {
	cfg := &Config{}
	c, err := cfg.LoadCatalog()
	require.NoError(t, err)
	assert.Positive(t, c.Len())

	cfg.Catalog = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.LoadCatalog()
	assert.Error(t, err)
}

func TestMetadata(t *testing.T) {
	cfg := &Config{Viewport: "max", Headless: true, Clipboard: "page", Parallel: 2}
	md := cfg.Metadata()
	assert.Equal(t, "max", md["Viewport"])
	assert.Equal(t, "true", md["Headless"])
	assert.Equal(t, "2", md["Parallel"])
}
