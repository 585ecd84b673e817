package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"ytkb/internal/state"
	"ytkb/internal/youtube"
)

// PlaylistSource resolves a playlist into an ordered video sequence.
type PlaylistSource interface {
	ListVideos(ctx context.Context, playlistID string) ([]youtube.Video, error)
	PlaylistTitle(ctx context.Context, playlistID string) string
}

// StoreResolver performs idempotent get-or-create of a file search store
// by display name.
type StoreResolver interface {
	GetOrCreateStore(ctx context.Context, displayName string) (string, error)
}

// StateStore loads-or-creates and persists playlist state.
type StateStore interface {
	GetOrCreate(playlistID, storeName string) *state.PlaylistState
	Save(st *state.PlaylistState) error
}

// VideoProcessor processes a single video to a terminal outcome.
type VideoProcessor interface {
	Process(ctx context.Context, video youtube.Video, st *state.PlaylistState) Outcome
}

// Summary aggregates the per-video outcomes of a run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// RunOptions configures a single playlist run.
type RunOptions struct {
	PlaylistID   string // bare ID, URL, or list= fragment
	StoreName    string // override; default is youtube-<playlist id>
	SkipExisting bool
}

// Runner iterates a playlist strictly in order, consulting state to decide
// per video whether work is needed, and guarantees that one video's
// failure never aborts the rest of the run.
type Runner struct {
	playlist  PlaylistSource
	stores    StoreResolver
	states    StateStore
	processor VideoProcessor
	reporter  Reporter
	logger    *slog.Logger
}

// NewRunner wires a Runner. A nil reporter is replaced with a no-op.
func NewRunner(playlist PlaylistSource, stores StoreResolver, states StateStore, processor VideoProcessor, reporter Reporter) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{
		playlist:  playlist,
		stores:    stores,
		states:    states,
		processor: processor,
		reporter:  reporter,
		logger:    slog.Default(),
	}
}

// Run processes every video of a playlist once. Playlist resolution and
// store binding failures abort the run; everything after that is per-video
// and recoverable. Cancellation is checked only between videos.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	playlistID := youtube.NormalizePlaylistID(opts.PlaylistID)

	r.reporter.Stepf("Fetching playlist: %s", playlistID)
	videos, err := r.playlist.ListVideos(ctx, playlistID)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving playlist %s: %w", playlistID, err)
	}
	if len(videos) == 0 {
		r.reporter.Stepf("No videos found in playlist")
		return Summary{}, nil
	}

	title := r.playlist.PlaylistTitle(ctx, playlistID)
	if title == "" {
		title = playlistID
	}
	r.reporter.Stepf("Found %d videos in %q", len(videos), title)

	storeName := opts.StoreName
	if storeName == "" {
		storeName = "youtube-" + playlistID
	}
	storeHandle, err := r.stores.GetOrCreateStore(ctx, storeName)
	if err != nil {
		return Summary{}, fmt.Errorf("binding file search store %q: %w", storeName, err)
	}

	st := r.states.GetOrCreate(playlistID, storeHandle)

	var summary Summary
	for i, video := range videos {
		if ctx.Err() != nil {
			r.reporter.Errorf("Run cancelled after %d of %d videos", i, len(videos))
			break
		}

		if opts.SkipExisting && st.IsProcessed(video.ID) {
			r.reporter.Stepf("[%d/%d] Skipping (already processed): %s", i+1, len(videos), video.Title)
			summary.Skipped++
			continue
		}

		r.reporter.Stepf("[%d/%d] Processing: %s", i+1, len(videos), video.Title)
		switch r.processVideo(ctx, video, st) {
		case OutcomeProcessed:
			summary.Processed++
		case OutcomeFailed:
			summary.Failed++
		}
	}

	return summary, nil
}

// processVideo isolates panics from a single video so the rest of the
// playlist still runs. A panic is recorded as a failed attempt.
func (r *Runner) processVideo(ctx context.Context, video youtube.Video, st *state.PlaylistState) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while processing video", "video_id", video.ID, "panic", rec)
			r.reporter.Errorf("Unexpected error processing %s: %v", video.ID, rec)
			st.AddFailed(video.ID, fmt.Sprintf("unexpected error: %v", rec))
			if err := r.states.Save(st); err != nil {
				r.logger.Error("state save failed after panic", "playlist_id", st.PlaylistID, "error", err)
			}
			outcome = OutcomeFailed
		}
	}()

	return r.processor.Process(ctx, video, st)
}
