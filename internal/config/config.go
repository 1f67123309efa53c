// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the application configuration: defaults first, then
// values from a YAML file layered on top. Rule tables are separate and live
// in internal/rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Defaults struct {
		Format    string `yaml:"format"`
		Workers   int    `yaml:"workers"`
		Recursive bool   `yaml:"recursive"`
		Debug     bool   `yaml:"debug"`
		NoColor   bool   `yaml:"no_color"`
		Quiet     bool   `yaml:"quiet"`
		// StateOverride forces the exemption state for every certificate.
		StateOverride string `yaml:"state_override"`
		// RulesFile overrides individual rule tables.
		RulesFile string `yaml:"rules_file"`
	} `yaml:"defaults"`

	// Vision configures the external field-extraction provider.
	Vision struct {
		Enabled   bool   `yaml:"enabled"`
		Model     string `yaml:"model"`
		APIKeyEnv string `yaml:"api_key_env"`
		// MinConfidence gates provider results; below it the local
		// extractor's output is used instead.
		MinConfidence float64 `yaml:"min_confidence"`
	} `yaml:"vision"`

	// Repository configures the certificate repository API client.
	Repository struct {
		Enabled     bool   `yaml:"enabled"`
		BaseURL     string `yaml:"base_url"`
		UsernameEnv string `yaml:"username_env"`
		PasswordEnv string `yaml:"password_env"`
		PageSize    int    `yaml:"page_size"`
	} `yaml:"repository"`

	// Store configures the sqlite audit log.
	Store struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"store"`

	// Notify configures Slack alerts for certificates needing review.
	Notify struct {
		Enabled  bool   `yaml:"enabled"`
		TokenEnv string `yaml:"token_env"`
		Channel  string `yaml:"channel"`
	} `yaml:"notify"`

	Web struct {
		Port int `yaml:"port"`
	} `yaml:"web"`
}

// LoadConfig loads configuration from the specified file path. An empty
// path returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	config.Defaults.Format = "text"
	config.Defaults.Workers = 4
	config.Vision.Model = "claude-sonnet-4-5"
	config.Vision.APIKeyEnv = "ANTHROPIC_API_KEY"
	config.Vision.MinConfidence = 0.5
	config.Repository.UsernameEnv = "CERT_REPO_USERNAME"
	config.Repository.PasswordEnv = "CERT_REPO_PASSWORD"
	config.Repository.PageSize = 100
	config.Store.Path = "cert-scan.db"
	config.Notify.TokenEnv = "SLACK_BOT_TOKEN"
	config.Web.Port = 8080

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func validate(config *Config) error {
	if config.Defaults.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", config.Defaults.Workers)
	}
	if config.Vision.MinConfidence < 0 || config.Vision.MinConfidence > 1 {
		return fmt.Errorf("vision.min_confidence must be within [0,1], got %v", config.Vision.MinConfidence)
	}
	if config.Web.Port < 1 || config.Web.Port > 65535 {
		return fmt.Errorf("web.port must be a valid TCP port, got %d", config.Web.Port)
	}
	return nil
}

// FindConfigFile looks for a configuration file in standard locations.
func FindConfigFile() string {
	for _, name := range []string{"cert-scan.yaml", "cert-scan.yml", ".cert-scan.yaml", ".cert-scan.yml"} {
		if fileExists(name) {
			return name
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if runtime.GOOS != "windows" {
		xdg := os.Getenv("XDG_CONFIG_HOME")
		if xdg == "" {
			xdg = filepath.Join(home, ".config")
		}
		for _, name := range []string{"config.yaml", "config.yml"} {
			p := filepath.Join(xdg, "cert-scan", name)
			if fileExists(p) {
				return p
			}
		}
	}
	for _, name := range []string{".cert-scan.yaml", ".cert-scan.yml"} {
		p := filepath.Join(home, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// LoadConfigOrDefault loads configuration from configFile, searching the
// standard locations when it is empty. Loading failures fall back to the
// defaults; callers should not crash on a bad config file.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg, _ = LoadConfig("")
	}
	return cfg
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
