package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "127.0.0.1"
  port: 9090

images:
  max_width: 1024
  encoder: "ffmpeg"
  ffmpeg_path: "/usr/local/bin/ffmpeg"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Images.MaxWidth != 1024 {
		t.Errorf("Expected max_width 1024, got %d", cfg.Images.MaxWidth)
	}
	if cfg.Images.Encoder != "ffmpeg" {
		t.Errorf("Expected encoder 'ffmpeg', got '%s'", cfg.Images.Encoder)
	}
	if cfg.Images.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("Expected ffmpeg_path, got '%s'", cfg.Images.FFmpegPath)
	}

	// Unset sections keep their defaults
	if cfg.Upload.MaxBytes != Default().Upload.MaxBytes {
		t.Errorf("Expected default max_bytes, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Unexpected addr %s", cfg.Addr())
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("images:\n  max_width: -1\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	_, err := Load(configFile)
	if err == nil || !strings.Contains(err.Error(), "max_width") {
		t.Errorf("Expected max_width validation error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty host", func(c *Config) { c.Server.Host = "" }, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, false},
		{"zero width", func(c *Config) { c.Images.MaxWidth = 0 }, false},
		{"unknown encoder", func(c *Config) { c.Images.Encoder = "avif" }, false},
		{"no upload limit", func(c *Config) { c.Upload.MaxBytes = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
