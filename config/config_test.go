package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/go-heatmap/heatmap/source"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("nonexistent.yaml", "nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "go-heatmap", cfg.AppName)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, source.DefaultURL, cfg.DataURL)
	assert.Equal(t, "RdYlBu", cfg.Palette)
	assert.Equal(t, 800.0, cfg.ChartWidth)
	assert.Equal(t, 400.0, cfg.ChartHeight)
	assert.Equal(t, 10, cfg.LegendParts)
	assert.False(t, cfg.TracingEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: heatmap-test
port: "9090"
data_file: testdata/global-temperature.csv
base_temperature: 8.66
http_timeout: 3s
palette: RdBu
legend_parts: 5
`), 0o600))

	cfg, err := load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, "heatmap-test", cfg.AppName)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "testdata/global-temperature.csv", cfg.DataFile)
	assert.Equal(t, 8.66, cfg.BaseTemperature)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "RdBu", cfg.Palette)
	assert.Equal(t, 5, cfg.LegendParts)
	// untouched by yaml
	assert.Equal(t, 800.0, cfg.ChartWidth)
}

func TestLoadEnvironmentOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\nlog_level: warn\n"), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("APP_ENV", "production")
	t.Setenv("FETCH_MAX_RETRIES", "7")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7, cfg.FetchMaxRetries)
	assert.True(t, cfg.TracingEnabled)
	assert.True(t, cfg.IsProduction())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CHART_WIDTH=1000\nX_TICKS=5\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CHART_WIDTH")
		os.Unsetenv("X_TICKS")
	})

	cfg, err := load(filepath.Join(dir, "config.yaml"), envFile)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.ChartWidth)
	assert.Equal(t, 5, cfg.XTicks)
	assert.Equal(t, 1000.0, cfg.Geometry().Width)
	assert.Equal(t, 400.0, cfg.Geometry().Height)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [\n"), 0o600))
		_, err := load(path, filepath.Join(dir, ".env"))
		assert.Error(t, err)
	})

	t.Run("bad environment value", func(t *testing.T) {
		t.Setenv("LEGEND_PARTS", "ten")
		_, err := load(filepath.Join(dir, "config.yaml"), filepath.Join(dir, ".env"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		modify func(c *Config)
		exp    string
	}{
		{name: "no app name", modify: func(c *Config) { c.AppName = "" }, exp: "app_name is required"},
		{name: "no data", modify: func(c *Config) { c.DataURL = "" }, exp: "one of data_url or data_file is required"},
		{name: "unknown palette", modify: func(c *Config) { c.Palette = "Viridis" }, exp: "palette(Viridis)"},
		{name: "zero width", modify: func(c *Config) { c.ChartWidth = 0 }, exp: "chart_width and chart_height must be positive"},
		{name: "negative height", modify: func(c *Config) { c.ChartHeight = -1 }, exp: "chart_width and chart_height must be positive"},
		{name: "no legend", modify: func(c *Config) { c.LegendParts = 0 }, exp: "legend_parts must be positive"},
		{name: "negative retries", modify: func(c *Config) { c.FetchMaxRetries = -1 }, exp: "fetch_max_retries must not be negative"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.exp)
		})
	}
}

func TestBackoff(t *testing.T) {
	c := Default()
	assert.Equal(t, source.DefaultBackoff, c.Backoff())
}
