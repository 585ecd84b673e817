package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "gemini.flash_model", typ: kString, env: "YTKB_GEMINI_FLASH_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.FlashModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.FlashModel },
	},
	{
		key: "gemini.chat_model", typ: kString, env: "YTKB_GEMINI_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.ChatModel },
	},
	{
		key: "transcript.languages", typ: kString, env: "YTKB_TRANSCRIPT_LANGUAGES",
		apply:   func(cfg *Config, v any) { cfg.Transcript.Languages = v.(string) },
		extract: func(cfg Config) any { return cfg.Transcript.Languages },
	},
	{
		key: "storage.data_dir", typ: kString, env: "YTKB_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "upload.poll_seconds", typ: kInt, env: "YTKB_UPLOAD_POLL_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Upload.PollSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Upload.PollSeconds },
	},
	{
		key: "upload.max_poll_attempts", typ: kInt, env: "YTKB_UPLOAD_MAX_POLL_ATTEMPTS",
		apply:   func(cfg *Config, v any) { cfg.Upload.MaxPollAttempts = v.(int) },
		extract: func(cfg Config) any { return cfg.Upload.MaxPollAttempts },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
