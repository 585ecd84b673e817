package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ytkb/internal/youtube"
)

type fakeGenerator struct {
	gotModel  string
	gotPrompt string
	text      string
	err       error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model, prompt string) (string, error) {
	f.gotModel = model
	f.gotPrompt = prompt
	return f.text, f.err
}

var testVideo = youtube.Video{
	ID:    "abc123",
	Title: "Go Concurrency Patterns",
	URL:   "https://www.youtube.com/watch?v=abc123",
}

func TestBuildPromptCarriesAllFields(t *testing.T) {
	prompt := BuildPrompt("My Title", "vid42", "https://example.com/v", "[00:00] hello")

	for _, want := range []string{"My Title", "vid42", "https://example.com/v", "[00:00] hello"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Error("prompt contains unreplaced placeholders")
	}
}

func TestTransformPrependsHeader(t *testing.T) {
	gen := &fakeGenerator{text: "# Summary\n\nContent."}
	tr := New(gen, "gemini-2.0-flash")

	doc, err := tr.Transform(context.Background(), testVideo, "[00:00] hi")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if !strings.HasPrefix(doc, "---\n") {
		t.Error("document should start with a metadata fence")
	}
	for _, want := range []string{
		"title: Go Concurrency Patterns",
		"video_id: abc123",
		"video_url: https://www.youtube.com/watch?v=abc123",
		"source: YouTube",
		"type: video_transcript",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("header missing %q", want)
		}
	}
	if !strings.HasSuffix(doc, "# Summary\n\nContent.") {
		t.Error("model output should follow the header")
	}
	if gen.gotModel != "gemini-2.0-flash" {
		t.Errorf("model = %q", gen.gotModel)
	}
	if !strings.Contains(gen.gotPrompt, "[00:00] hi") {
		t.Error("formatted transcript not embedded in prompt")
	}
}

func TestTransformEmptyResponseIsError(t *testing.T) {
	tr := New(&fakeGenerator{text: ""}, "m")
	if _, err := tr.Transform(context.Background(), testVideo, "x"); err == nil {
		t.Fatal("empty model response should be an error")
	}
}

func TestTransformGeneratorError(t *testing.T) {
	tr := New(&fakeGenerator{err: errors.New("boom")}, "m")
	if _, err := tr.Transform(context.Background(), testVideo, "x"); err == nil {
		t.Fatal("generator error should propagate")
	}
}
