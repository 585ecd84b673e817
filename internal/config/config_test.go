package config

import (
	"reflect"
	"testing"
)

// memBackend is a test double for the config Backend.
type memBackend struct {
	strings map[string]string
	ints    map[string]int
}

func (m memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m memBackend) SetString(key, val string) error { return nil }
func (m memBackend) SetInt(key string, val int) error { return nil }
func (m memBackend) Delete(key string) error          { return nil }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("YOUTUBE_API_KEY", "")
}

// TestDefaults verifies all default values survive an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(memBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gemini.FlashModel != "gemini-2.0-flash" {
		t.Errorf("Gemini.FlashModel = %q, want %q", cfg.Gemini.FlashModel, "gemini-2.0-flash")
	}
	if cfg.Gemini.ChatModel != "gemini-2.5-flash" {
		t.Errorf("Gemini.ChatModel = %q, want %q", cfg.Gemini.ChatModel, "gemini-2.5-flash")
	}
	if cfg.Transcript.Languages != "en" {
		t.Errorf("Transcript.Languages = %q, want %q", cfg.Transcript.Languages, "en")
	}
	if cfg.Upload.PollSeconds != 2 {
		t.Errorf("Upload.PollSeconds = %d, want 2", cfg.Upload.PollSeconds)
	}
	if cfg.Upload.MaxPollAttempts != 150 {
		t.Errorf("Upload.MaxPollAttempts = %d, want 150", cfg.Upload.MaxPollAttempts)
	}
}

// TestBackendValues verifies values from the backend override defaults.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(memBackend{
		strings: map[string]string{
			"gemini.flash_model":   "gemini-custom",
			"transcript.languages": "uk, en",
			"storage.data_dir":     "/tmp/ytkb-test",
		},
		ints: map[string]int{
			"upload.poll_seconds": 5,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gemini.FlashModel != "gemini-custom" {
		t.Errorf("Gemini.FlashModel = %q, want %q", cfg.Gemini.FlashModel, "gemini-custom")
	}
	if cfg.Upload.PollSeconds != 5 {
		t.Errorf("Upload.PollSeconds = %d, want 5", cfg.Upload.PollSeconds)
	}
	if got, want := cfg.StateDir(), "/tmp/ytkb-test/playlists"; got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
	if got, want := cfg.Languages(), []string{"uk", "en"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
}

// TestEnvOverride verifies environment variables win over backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("YTKB_GEMINI_CHAT_MODEL", "env-model")
	t.Setenv("YTKB_UPLOAD_MAX_POLL_ATTEMPTS", "7")

	cfg, err := loadWith(memBackend{
		strings: map[string]string{"gemini.chat_model": "file-model"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gemini.ChatModel != "env-model" {
		t.Errorf("Gemini.ChatModel = %q, want %q", cfg.Gemini.ChatModel, "env-model")
	}
	if cfg.Upload.MaxPollAttempts != 7 {
		t.Errorf("Upload.MaxPollAttempts = %d, want 7", cfg.Upload.MaxPollAttempts)
	}
}

// TestAPIKeysFromEnv verifies the key lookup order for Gemini credentials.
func TestAPIKeysFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")

	cfg, err := loadWith(memBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gemini.APIKey != "google-key" {
		t.Errorf("Gemini.APIKey = %q, want %q", cfg.Gemini.APIKey, "google-key")
	}
	if cfg.YouTube.APIKey != "yt-key" {
		t.Errorf("YouTube.APIKey = %q, want %q", cfg.YouTube.APIKey, "yt-key")
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = loadWith(memBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.APIKey != "gemini-key" {
		t.Errorf("Gemini.APIKey = %q, want GEMINI_API_KEY to take precedence", cfg.Gemini.APIKey)
	}
}

// TestRequireKeys verifies the errors name the environment variables to set.
func TestRequireKeys(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(memBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cfg.RequireGeminiKey(); err == nil {
		t.Error("expected error for missing Gemini key, got nil")
	}
	if err := cfg.RequireYouTubeKey(); err == nil {
		t.Error("expected error for missing YouTube key, got nil")
	}

	cfg.Gemini.APIKey = "k"
	cfg.YouTube.APIKey = "k"
	if err := cfg.RequireGeminiKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := cfg.RequireYouTubeKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestSetKeyValidation verifies unknown keys and bad integers are rejected.
func TestSetKeyValidation(t *testing.T) {
	if err := SetKey("nonsense.key", "v"); err == nil {
		t.Error("expected error for unknown key, got nil")
	}

	found := false
	for _, k := range ValidKeys() {
		if k == "upload.poll_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("ValidKeys() missing upload.poll_seconds")
	}
}
