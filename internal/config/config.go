// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Device backends selectable through VOICEDESK_AUDIO_BACKEND.
const (
	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
	BackendNone      = "none"
)

// Config holds all application configuration.
type Config struct {
	// ServerURL is the backend base URL; ws:// and wss:// are derived from
	// http:// and https:// automatically.
	ServerURL string
	// SessionID pins the session identifier; empty means mint a fresh one.
	SessionID string
	// AudioBackend selects the device backend: miniaudio, portaudio or none
	// for a text-only session.
	AudioBackend string
	// PortaudioBufferSize is the per-write device buffer in samples, only
	// meaningful for the portaudio backend.
	PortaudioBufferSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerURL:           getEnv("VOICEDESK_SERVER_URL", "http://localhost:8000"),
		SessionID:           getEnv("VOICEDESK_SESSION_ID", ""),
		AudioBackend:        getEnv("VOICEDESK_AUDIO_BACKEND", BackendMiniaudio),
		PortaudioBufferSize: getEnvInt("VOICEDESK_PORTAUDIO_BUFFER", 1024),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all configuration fields are usable.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid VOICEDESK_SERVER_URL: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid VOICEDESK_SERVER_URL scheme: %q", parsed.Scheme)
	}

	switch c.AudioBackend {
	case BackendMiniaudio, BackendPortaudio, BackendNone:
	default:
		return fmt.Errorf("invalid VOICEDESK_AUDIO_BACKEND: %q", c.AudioBackend)
	}

	if c.PortaudioBufferSize <= 0 {
		return fmt.Errorf("invalid VOICEDESK_PORTAUDIO_BUFFER: %d", c.PortaudioBufferSize)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
