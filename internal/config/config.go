package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Images ImagesConfig `yaml:"images"`
	Upload UploadConfig `yaml:"upload"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ImagesConfig struct {
	MaxWidth   int    `yaml:"max_width"`
	Encoder    string `yaml:"encoder"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Images: ImagesConfig{
			MaxWidth: 800,
			Encoder:  "auto",
		},
		Upload: UploadConfig{
			MaxBytes: 64 << 20,
		},
	}
}

// Load reads the configuration file on top of the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all values are usable
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Images.MaxWidth <= 0 {
		return fmt.Errorf("images.max_width must be greater than 0, got %d", c.Images.MaxWidth)
	}
	switch c.Images.Encoder {
	case "", "auto", "native", "ffmpeg":
	default:
		return fmt.Errorf("images.encoder must be auto, native or ffmpeg, got %q", c.Images.Encoder)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be greater than 0")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
