// Package pipeline contains the idempotent playlist processing core: a
// per-video processor that drives fetch, format, rewrite, and upload with
// fail-fast semantics, and a runner that iterates a playlist against
// persistent state.
package pipeline

import (
	"context"
	"log/slog"

	"ytkb/internal/state"
	"ytkb/internal/transcript"
	"ytkb/internal/youtube"
)

// Outcome is the terminal result of processing one video.
type Outcome int

const (
	OutcomeProcessed Outcome = iota
	OutcomeFailed
)

// Failure texts recorded in state. Re-runs match on these, so they are
// stable strings rather than wrapped errors.
const (
	errFetchTranscript     = "Failed to retrieve transcript"
	errTransformTranscript = "Failed to transform transcript"
	errUploadDocument      = "Failed to upload to Gemini"
)

// TranscriptSource fetches timed captions for a video. A nil slice means
// no transcript is available; the processor does not distinguish why.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string, languages []string) ([]transcript.Segment, error)
}

// Rewriter turns a formatted transcript into a knowledge document.
type Rewriter interface {
	Transform(ctx context.Context, video youtube.Video, formattedTranscript string) (string, error)
}

// DocumentIndex uploads content into a file search store under a
// deterministic display name.
type DocumentIndex interface {
	UploadDocument(ctx context.Context, content, displayName, storeName string, skipIfExists bool) (string, error)
}

// StateSaver persists playlist state. The processor saves after every
// terminal outcome so an interrupted run never loses a recorded attempt.
type StateSaver interface {
	Save(st *state.PlaylistState) error
}

// Processor runs the four-stage pipeline for exactly one video.
type Processor struct {
	transcripts TranscriptSource
	rewriter    Rewriter
	index       DocumentIndex
	states      StateSaver
	languages   []string
	reporter    Reporter
	logger      *slog.Logger
}

// NewProcessor wires a Processor. A nil reporter is replaced with a no-op.
func NewProcessor(transcripts TranscriptSource, rewriter Rewriter, index DocumentIndex, states StateSaver, languages []string, reporter Reporter) *Processor {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &Processor{
		transcripts: transcripts,
		rewriter:    rewriter,
		index:       index,
		states:      states,
		languages:   languages,
		reporter:    reporter,
		logger:      slog.Default(),
	}
}

// DisplayName returns the deterministic index display name for a video, so
// repeated uploads of the same video are recognizable.
func DisplayName(videoID string) string {
	return "youtube-" + videoID
}

// Process drives one video through the pipeline. Each stage stops the run
// on first failure; every terminal path records into st and persists it.
// Retry across runs is the caller's concern.
func (p *Processor) Process(ctx context.Context, video youtube.Video, st *state.PlaylistState) Outcome {
	segments, err := p.transcripts.Fetch(ctx, video.ID, p.languages)
	if err != nil {
		p.logger.Warn("transcript fetch failed", "video_id", video.ID, "error", err)
	}
	if len(segments) == 0 {
		return p.recordFailure(st, video.ID, errFetchTranscript)
	}

	formatted := transcript.Format(segments)
	p.reporter.Stepf("Retrieved transcript (%d segments)", len(segments))

	document, err := p.rewriter.Transform(ctx, video, formatted)
	if err != nil || document == "" {
		if err != nil {
			p.logger.Warn("transcript rewrite failed", "video_id", video.ID, "error", err)
		}
		return p.recordFailure(st, video.ID, errTransformTranscript)
	}
	p.reporter.Stepf("Transformed transcript (%d chars)", len(document))

	displayName := DisplayName(video.ID)
	if _, err := p.index.UploadDocument(ctx, document, displayName, st.StoreName, true); err != nil {
		p.logger.Warn("document upload failed", "video_id", video.ID, "error", err)
		return p.recordFailure(st, video.ID, errUploadDocument)
	}

	st.AddProcessed(state.NewProcessedVideo(video.ID, video.Title, displayName, len(formatted), len(document), ""))
	p.save(st)
	return OutcomeProcessed
}

func (p *Processor) recordFailure(st *state.PlaylistState, videoID, errText string) Outcome {
	p.reporter.Errorf("%s: %s", errText, videoID)
	st.AddFailed(videoID, errText)
	p.save(st)
	return OutcomeFailed
}

// save persists state and reports (but does not escalate) write failures:
// a lost record is recoverable on the next run, a dropped video is not.
func (p *Processor) save(st *state.PlaylistState) {
	if err := p.states.Save(st); err != nil {
		p.reporter.Errorf("Failed to save state for %s: %v", st.PlaylistID, err)
		p.logger.Error("state save failed", "playlist_id", st.PlaylistID, "error", err)
	}
}
