package resurrect

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", s.Listen)
	assert.Empty(t, s.Backend.URL)
	assert.Equal(t, 24*time.Hour, s.Cache.TTL)
	assert.Equal(t, slog.LevelInfo, s.Level())
}

func TestLoadSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
backend:
  url: "http://localhost:8000"
log_level: debug
`), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", s.Listen)
	assert.Equal(t, "http://localhost:8000", s.Backend.URL)
	assert.Equal(t, slog.LevelDebug, s.Level())
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	t.Setenv("RESURRECT_LISTEN", ":7070")
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon-key")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", s.Listen)
	assert.Equal(t, "https://demo.supabase.co", s.Archive.URL)
	assert.Equal(t, "anon-key", s.Archive.Key)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
