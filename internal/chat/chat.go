// Package chat provides single-query and interactive querying of a
// processed playlist's file search store.
package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytkb/internal/gemini"
	"ytkb/internal/history"
)

// Querier answers a question grounded in the given file search stores.
type Querier interface {
	QueryFileSearch(ctx context.Context, model, question string, storeNames []string) (*gemini.QueryResult, error)
}

// Recorder appends interactions to the history log.
type Recorder interface {
	SaveInteraction(i history.Interaction) error
}

// Session queries one playlist's knowledge base.
type Session struct {
	querier    Querier
	recorder   Recorder // optional; nil disables history
	model      string
	playlistID string
	storeName  string
	out        io.Writer
	logger     *slog.Logger
}

// NewSession creates a Session bound to one playlist and its store.
func NewSession(querier Querier, recorder Recorder, model, playlistID, storeName string, out io.Writer) *Session {
	return &Session{
		querier:    querier,
		recorder:   recorder,
		model:      model,
		playlistID: playlistID,
		storeName:  storeName,
		out:        out,
		logger:     slog.Default(),
	}
}

// Query asks a single question, prints the answer with its sources, and
// records the exchange. History write failures are logged, not fatal.
func (s *Session) Query(ctx context.Context, question string) error {
	result, err := s.querier.QueryFileSearch(ctx, s.model, question, []string{s.storeName})
	if err != nil {
		return fmt.Errorf("querying knowledge base: %w", err)
	}
	if result.Text == "" {
		return fmt.Errorf("no answer from model")
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, result.Text)
	if len(result.Sources) > 0 {
		fmt.Fprintln(s.out, "\nSources:")
		for _, src := range dedupe(result.Sources) {
			fmt.Fprintf(s.out, "  - %s\n", src)
		}
	}

	s.record(question, result)
	return nil
}

// Interactive runs a read-ask-print loop until the user types exit, quit,
// or q, or input reaches EOF. Per-question errors are shown and the loop
// continues.
func (s *Session) Interactive(ctx context.Context, in io.Reader, title string) error {
	if title != "" {
		fmt.Fprintf(s.out, "Knowledge Base Chat: %s\n", title)
	} else {
		fmt.Fprintln(s.out, "Knowledge Base Chat")
	}
	fmt.Fprintln(s.out, "Ask questions about the videos. Type 'exit', 'quit', or 'q' to end.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprint(s.out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out, "\nGoodbye!")
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}

		fmt.Fprintln(s.out, "\nAssistant:")
		if err := s.Query(ctx, question); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

func (s *Session) record(question string, result *gemini.QueryResult) {
	if s.recorder == nil {
		return
	}

	sources, _ := json.Marshal(dedupe(result.Sources))
	err := s.recorder.SaveInteraction(history.Interaction{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		PlaylistID: s.playlistID,
		StoreName:  s.storeName,
		Question:   question,
		Answer:     result.Text,
		Model:      s.model,
		Sources:    string(sources),
	})
	if err != nil {
		s.logger.Warn("failed to record interaction", "playlist_id", s.playlistID, "error", err)
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
