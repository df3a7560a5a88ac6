// Package config handles configuration loading for the plot server.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Title       string   `yaml:"title"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatasetConfig names one dataset file to serve.
type DatasetConfig struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// DataConfig contains dataset settings.
type DataConfig struct {
	Datasets []DatasetConfig `yaml:"datasets"`
	Default  string          `yaml:"default"`
}

// DefaultDataset returns the configured default, or the first dataset.
func (d DataConfig) DefaultDataset() string {
	if d.Default != "" {
		return d.Default
	}
	if len(d.Datasets) > 0 {
		return d.Datasets[0].ID
	}
	return ""
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	PlotSizeMB     int `yaml:"plot_size_mb"`
	PlotTTLMinutes int `yaml:"plot_ttl_minutes"`
	TableCacheSize int `yaml:"table_cache_size"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	PointSize       float64 `yaml:"point_size"`
	DefaultColormap string  `yaml:"default_colormap"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Cache: CacheConfig{
			PlotSizeMB:     256,
			PlotTTLMinutes: 10,
			TableCacheSize: 128,
		},
		Render: RenderConfig{
			Width:           800,
			Height:          600,
			PointSize:       2,
			DefaultColormap: "viridis",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Cache.PlotSizeMB == 0 {
		cfg.Cache.PlotSizeMB = defaults.Cache.PlotSizeMB
	}
	if cfg.Cache.PlotTTLMinutes == 0 {
		cfg.Cache.PlotTTLMinutes = defaults.Cache.PlotTTLMinutes
	}
	if cfg.Cache.TableCacheSize == 0 {
		cfg.Cache.TableCacheSize = defaults.Cache.TableCacheSize
	}
	if cfg.Render.Width == 0 {
		cfg.Render.Width = defaults.Render.Width
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = defaults.Render.Height
	}
	if cfg.Render.PointSize == 0 {
		cfg.Render.PointSize = defaults.Render.PointSize
	}
	if cfg.Render.DefaultColormap == "" {
		cfg.Render.DefaultColormap = defaults.Render.DefaultColormap
	}
}
