package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestValidateYAMLContent_ExampleIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("expected example config to validate: %v", err)
	}
	if cfg.Storage.UploadDir != DefaultUploadDir || cfg.Server.Port != DefaultServerPort {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Server.MaxUploadBytes() != 32<<20 {
		t.Fatalf("unexpected upload limit %d", cfg.Server.MaxUploadBytes())
	}
}

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte("server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("expected partial config to validate: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	if cfg.Storage.DBPath != DefaultDBPath || cfg.Log.Level != "info" {
		t.Fatalf("expected defaults to fill the rest: %+v", cfg)
	}
}

func TestValidateYAMLContent_RejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "port", content: "server:\n  port: 70000\n", want: "Port"},
		{name: "upload limit", content: "server:\n  max_upload_mb: 0\n", want: "MaxUploadMB"},
		{name: "log level", content: "log:\n  level: verbose\n", want: "Level"},
		{name: "log format", content: "log:\n  format: xml\n", want: "Format"},
		{name: "upload dir", content: "storage:\n  upload_dir: \"  \"\n", want: "UploadDir"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ValidateYAMLContent([]byte(tc.content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to mention %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateYAMLContent_RejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	if _, err := ValidateYAMLContent([]byte("server: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestBindEnv_OverridesFileValues(t *testing.T) {
	t.Setenv("PATCHIMPORT_SERVER_PORT", "9191")

	local := viper.New()
	setDefaults(local)
	bindEnv(local)

	cfg, err := loadAndValidateFromViper(local)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Fatalf("expected env override, got %d", cfg.Server.Port)
	}
}
