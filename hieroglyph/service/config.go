package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// BackendURL is the base URL of the hieroglyph backend (default http://localhost:8000).
	BackendURL string `json:"backendURL,omitempty" yaml:"backendURL,omitempty"`
	// BackendToken is sent as a bearer token to the backend when set.
	BackendToken string `json:"backendToken,omitempty" yaml:"backendToken,omitempty"`
	// AssetsBase is an AFS URL holding grapheme_NNN.png images and an optional manifest.yaml.
	// Examples: file://~/hieroglyph/assets, mem://localhost/assets, gs://bucket/assets
	AssetsBase string `json:"assetsBase,omitempty" yaml:"assetsBase,omitempty"`
	// StateBase is an AFS URL root for persisting sessions per namespace; empty keeps them in memory.
	StateBase string `json:"stateBase,omitempty" yaml:"stateBase,omitempty"`
	// UseData returns structured tool content instead of JSON text.
	UseData bool `json:"useData,omitempty" yaml:"useData,omitempty"`

	// TimeoutSeconds caps a single backend call (default 15s).
	TimeoutSeconds int `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	// SessionTTLSeconds drops sessions idle for longer (default 86400 = 24h).
	SessionTTLSeconds int `json:"sessionTtlSeconds,omitempty" yaml:"sessionTtlSeconds,omitempty"`
	// Columns is the grid width reported by grapheme listings (default 10).
	Columns int `json:"columns,omitempty" yaml:"columns,omitempty"`

	Logger *zerolog.Logger `json:"-" yaml:"-"`
}

// LoadConfig reads a YAML or JSON config file from any AFS URL.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	URL = strings.TrimSpace(URL)
	if URL == "" {
		return &Config{}, nil
	}
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	return cfg, nil
}

// Merge overlays non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.BackendURL != "" {
		c.BackendURL = other.BackendURL
	}
	if other.BackendToken != "" {
		c.BackendToken = other.BackendToken
	}
	if other.AssetsBase != "" {
		c.AssetsBase = other.AssetsBase
	}
	if other.StateBase != "" {
		c.StateBase = other.StateBase
	}
	if other.UseData {
		c.UseData = true
	}
	if other.TimeoutSeconds > 0 {
		c.TimeoutSeconds = other.TimeoutSeconds
	}
	if other.SessionTTLSeconds > 0 {
		c.SessionTTLSeconds = other.SessionTTLSeconds
	}
	if other.Columns > 0 {
		c.Columns = other.Columns
	}
	if other.Logger != nil {
		c.Logger = other.Logger
	}
}
