package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.SkewThreshold)
	assert.Equal(t, 1.5, c.IQRMultiplier)
	assert.True(t, c.TextLowercase)
	assert.False(t, c.Strict)
	assert.Equal(t, "csv", c.OutputFormat)
	assert.Equal(t, "public", c.PostgresSchema)
	assert.Equal(t, "projects", filepath.Base(c.ProjectsDir))
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skew_threshold: 0.8\niqr_multiplier: 3\n"), 0o644))
	t.Setenv("DATATIDY_IQR_MULTIPLIER", "2.5")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, c.SkewThreshold)
	assert.Equal(t, 2.5, c.IQRMultiplier)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("iqr_multiplier: -1\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSetSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("strict", "true"))
	require.NoError(t, c.Set("workers", "4"))
	require.NoError(t, c.Set("missing_tokens", "?, -"))
	require.NoError(t, c.Set("output_format", "Parquet"))
	assert.Error(t, c.Set("output_format", "xlsx"))
	c.OutputFormat = "parquet"
	assert.Error(t, c.Set("nope", "1"))
	require.NoError(t, Save(c, ""))

	again, err := Load("")
	require.NoError(t, err)
	assert.True(t, again.Strict)
	assert.Equal(t, 4, again.Workers)
	assert.Equal(t, []string{"?", "-"}, again.MissingTokens)
	assert.Equal(t, "parquet", again.OutputFormat)

	v, err := again.Get("workers")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
	for _, k := range Keys {
		_, err := again.Get(k)
		assert.NoError(t, err, k)
	}
}
