// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("format = %q", cfg.Defaults.Format)
	}
	if cfg.Defaults.Workers != 4 {
		t.Errorf("workers = %d", cfg.Defaults.Workers)
	}
	if cfg.Vision.MinConfidence != 0.5 {
		t.Errorf("vision min confidence = %v", cfg.Vision.MinConfidence)
	}
	if cfg.Vision.APIKeyEnv != "ANTHROPIC_API_KEY" {
		t.Errorf("api key env = %q", cfg.Vision.APIKeyEnv)
	}
	if cfg.Repository.PageSize != 100 {
		t.Errorf("page size = %d", cfg.Repository.PageSize)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("port = %d", cfg.Web.Port)
	}
	if cfg.Vision.Enabled || cfg.Repository.Enabled || cfg.Store.Enabled || cfg.Notify.Enabled {
		t.Error("integrations must default to disabled")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cert-scan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigLayersFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
defaults:
  format: json
  workers: 8
vision:
  enabled: true
  min_confidence: 0.7
web:
  port: 9090
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Defaults.Format != "json" || cfg.Defaults.Workers != 8 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if !cfg.Vision.Enabled || cfg.Vision.MinConfidence != 0.7 {
		t.Errorf("vision = %+v", cfg.Vision)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Vision.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %q", cfg.Vision.Model)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("port = %d", cfg.Web.Port)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero workers", "defaults:\n  workers: 0\n", "workers"},
		{"bad confidence", "vision:\n  min_confidence: 1.5\n", "min_confidence"},
		{"bad port", "web:\n  port: 70000\n", "port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadConfigOrDefaultFallsBack(t *testing.T) {
	cfg := LoadConfigOrDefault(writeConfig(t, "defaults:\n  workers: 0\n"))
	if cfg == nil {
		t.Fatal("expected a config")
	}
	if cfg.Defaults.Workers != 4 {
		t.Errorf("workers = %d, want the default after a bad file", cfg.Defaults.Workers)
	}
}
