// Package config loads tool configuration from an XDG JSON file with
// environment variable overrides. API keys are environment-only and never
// written to the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Gemini     GeminiConfig
	YouTube    YouTubeConfig
	Transcript TranscriptConfig
	Storage    StorageConfig
	Upload     UploadConfig
}

type GeminiConfig struct {
	APIKey     string
	FlashModel string // transcript rewriting
	ChatModel  string // file-search grounded queries
}

type YouTubeConfig struct {
	APIKey string
}

type TranscriptConfig struct {
	Languages string // comma-separated preference order
}

type StorageConfig struct {
	DataDir string
}

type UploadConfig struct {
	PollSeconds     int
	MaxPollAttempts int
}

func defaults() Config {
	return Config{
		Gemini: GeminiConfig{
			FlashModel: "gemini-2.0-flash",
			ChatModel:  "gemini-2.5-flash",
		},
		Transcript: TranscriptConfig{
			Languages: "en",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Upload: UploadConfig{
			PollSeconds:     2,
			MaxPollAttempts: 150,
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "ytkb-data"
		}
	}
	return filepath.Join(dir, "ytkb")
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/ytkb/config.json, then applies YTKB_* environment
// overrides. API keys come from GEMINI_API_KEY (or GOOGLE_API_KEY) and
// YOUTUBE_API_KEY.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}

	return cfg, nil
}

// StateDir is where per-playlist state files live.
func (c Config) StateDir() string {
	return filepath.Join(c.Storage.DataDir, "playlists")
}

// Languages returns the transcript language preference list in order.
func (c Config) Languages() []string {
	parts := strings.Split(c.Transcript.Languages, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequireGeminiKey returns an error naming the expected environment
// variables when no Gemini API key is configured.
func (c Config) RequireGeminiKey() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("missing Gemini API key: set GEMINI_API_KEY or GOOGLE_API_KEY")
	}
	return nil
}

// RequireYouTubeKey returns an error when no YouTube Data API key is
// configured.
func (c Config) RequireYouTubeKey() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("missing YouTube API key: set YOUTUBE_API_KEY")
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
