package crawler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeeds(t *testing.T) {
	path := writeSeedFile(t, `
- start_url: https://docs.example.com/
  max_pages: 25
  allowed_domains: [docs.example.com, example.com]
  delay_ms: 500
- start_url: https://blog.example.com/
`)

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	assert.Equal(t, "https://docs.example.com/", seeds[0].StartURL)
	assert.Equal(t, 25, seeds[0].MaxPages)
	assert.Equal(t, []string{"docs.example.com", "example.com"}, seeds[0].AllowedDomains)

	assert.Equal(t, "https://blog.example.com/", seeds[1].StartURL)
	assert.Zero(t, seeds[1].MaxPages)
}

func TestLoadSeeds_MissingStartURL(t *testing.T) {
	path := writeSeedFile(t, `
- max_pages: 5
`)
	_, err := LoadSeeds(path)
	assert.Error(t, err)
}

func TestLoadSeeds_MissingFile(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSeed_ConfigDefaults(t *testing.T) {
	defaults := Config{MaxPages: 10, Delay: time.Second}

	cfg := Seed{StartURL: "https://example.com"}.Config(defaults)
	assert.Equal(t, 10, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.Delay)

	cfg = Seed{StartURL: "https://example.com", MaxPages: 3, DelayMS: 250}.Config(defaults)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
}
