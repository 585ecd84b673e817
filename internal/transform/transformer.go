// Package transform rewrites formatted transcripts into structured
// knowledge documents through a generative model.
package transform

import (
	"context"
	"fmt"

	"ytkb/internal/youtube"
)

// Generator produces text from a prompt. An empty result with a nil error
// means the model returned nothing usable.
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// Transformer drives the rewrite step for a single video.
type Transformer struct {
	generator Generator
	model     string
}

// New creates a Transformer using the given generator and model name.
func New(generator Generator, model string) *Transformer {
	return &Transformer{generator: generator, model: model}
}

// Transform rewrites a formatted transcript into a knowledge document with
// the metadata header already prepended. An empty model response is
// returned as an error so the caller records a single failure kind.
func (t *Transformer) Transform(ctx context.Context, video youtube.Video, formattedTranscript string) (string, error) {
	prompt := BuildPrompt(video.Title, video.ID, video.URL, formattedTranscript)

	text, err := t.generator.GenerateContent(ctx, t.model, prompt)
	if err != nil {
		return "", fmt.Errorf("rewriting transcript for %s: %w", video.ID, err)
	}
	if text == "" {
		return "", fmt.Errorf("empty response for %s", video.ID)
	}

	return MetadataHeader(video) + text, nil
}

// MetadataHeader renders the document front matter identifying the source
// video. The fence lines let the index treat it as structured metadata.
func MetadataHeader(video youtube.Video) string {
	return fmt.Sprintf(`---
title: %s
video_id: %s
video_url: %s
source: YouTube
type: video_transcript
---

`, video.Title, video.ID, video.URL)
}
