package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/nikolaydubina/go-heatmap/heatmap/layout"
	"github.com/nikolaydubina/go-heatmap/heatmap/render"
	"github.com/nikolaydubina/go-heatmap/heatmap/source"
)

const (
	DefaultPath    = "config/config.yaml"
	DefaultEnvFile = ".env"
)

// Config is loaded from defaults, then YAML file, then .env file, then environment.
// Later sources override earlier ones.
type Config struct {
	AppName  string `yaml:"app_name" envconfig:"APP_NAME"`
	AppEnv   string `yaml:"app_env" envconfig:"APP_ENV"`
	Port     string `yaml:"port" envconfig:"PORT"`
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// DataFile takes precedence over DataURL when set.
	DataURL              string        `yaml:"data_url" envconfig:"DATA_URL"`
	DataFile             string        `yaml:"data_file" envconfig:"DATA_FILE"`
	BaseTemperature      float64       `yaml:"base_temperature" envconfig:"BASE_TEMPERATURE"`
	HTTPTimeout          time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	FetchMaxRetries      int           `yaml:"fetch_max_retries" envconfig:"FETCH_MAX_RETRIES"`
	FetchInitialInterval time.Duration `yaml:"fetch_initial_interval" envconfig:"FETCH_INITIAL_INTERVAL"`
	FetchMaxInterval     time.Duration `yaml:"fetch_max_interval" envconfig:"FETCH_MAX_INTERVAL"`

	Palette     string  `yaml:"palette" envconfig:"PALETTE"`
	ChartWidth  float64 `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight float64 `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
	LegendParts int     `yaml:"legend_parts" envconfig:"LEGEND_PARTS"`
	XTicks      int     `yaml:"x_ticks" envconfig:"X_TICKS"`

	TracingEnabled bool `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
}

func Default() Config {
	return Config{
		AppName:              "go-heatmap",
		AppEnv:               "development",
		Port:                 "8080",
		LogLevel:             "info",
		DataURL:              source.DefaultURL,
		HTTPTimeout:          10 * time.Second,
		FetchMaxRetries:      source.DefaultBackoff.MaxRetries,
		FetchInitialInterval: source.DefaultBackoff.InitialInterval,
		FetchMaxInterval:     source.DefaultBackoff.MaxInterval,
		Palette:              render.DefaultPalette,
		ChartWidth:           layout.DefaultGeometry.Width,
		ChartHeight:          layout.DefaultGeometry.Height,
		LegendParts:          render.DefaultLegendParts,
		XTicks:               render.DefaultXTicks,
	}
}

// Load reads config. Missing YAML or .env files are not errors.
func Load(path string) (*Config, error) {
	return load(path, DefaultEnvFile)
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("can not parse yaml config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("can not read config %s: %w", path, err)
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("can not load env file %s: %w", envFile, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []string

	if c.AppName == "" {
		errs = append(errs, "app_name is required")
	}
	if c.Port == "" {
		errs = append(errs, "port is required")
	}
	if c.DataURL == "" && c.DataFile == "" {
		errs = append(errs, "one of data_url or data_file is required")
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "http_timeout must be positive")
	}
	if c.FetchMaxRetries < 0 {
		errs = append(errs, "fetch_max_retries must not be negative")
	}
	if c.FetchInitialInterval <= 0 {
		errs = append(errs, "fetch_initial_interval must be positive")
	}
	if _, ok := paletteNames()[c.Palette]; !ok {
		errs = append(errs, fmt.Sprintf("palette(%s) is not one of %s", c.Palette, strings.Join(render.PaletteNames(), ", ")))
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		errs = append(errs, "chart_width and chart_height must be positive")
	}
	if c.LegendParts < 1 {
		errs = append(errs, "legend_parts must be positive")
	}
	if c.XTicks < 1 {
		errs = append(errs, "x_ticks must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func paletteNames() map[string]struct{} {
	names := map[string]struct{}{}
	for _, name := range render.PaletteNames() {
		names[name] = struct{}{}
	}
	return names
}

func (c Config) IsDevelopment() bool { return c.AppEnv == "development" }

func (c Config) IsProduction() bool { return c.AppEnv == "production" }

func (c Config) Backoff() source.BackoffConfig {
	return source.BackoffConfig{
		MaxRetries:      c.FetchMaxRetries,
		InitialInterval: c.FetchInitialInterval,
		MaxInterval:     c.FetchMaxInterval,
	}
}

func (c Config) Geometry() layout.Geometry {
	g := layout.DefaultGeometry
	g.Width = c.ChartWidth
	g.Height = c.ChartHeight
	return g
}
