package state

import "time"

// ProcessedVideo is the record of a terminal processing attempt for one
// video. A record with a non-empty Error denotes a recorded failed attempt;
// an empty Error denotes success. A later attempt for the same video
// overwrites the prior record.
type ProcessedVideo struct {
	VideoID           string `json:"video_id"`
	Title             string `json:"title"`
	ProcessedAt       string `json:"processed_at"`
	DocumentName      string `json:"document_name"`
	TranscriptLength  int    `json:"transcript_length"`
	TransformedLength int    `json:"transformed_length"`
	Error             string `json:"error,omitempty"`
}

// NewProcessedVideo creates a record stamped with the current UTC time.
func NewProcessedVideo(videoID, title, documentName string, transcriptLen, transformedLen int, errText string) ProcessedVideo {
	return ProcessedVideo{
		VideoID:           videoID,
		Title:             title,
		ProcessedAt:       time.Now().UTC().Format(time.RFC3339),
		DocumentName:      documentName,
		TranscriptLength:  transcriptLen,
		TransformedLength: transformedLen,
		Error:             errText,
	}
}

// PlaylistState tracks processing history for a single playlist. It holds
// two maps: Processed (video id -> terminal attempt record) and Failed
// (video id -> last failure text for attempts that stopped before a record
// was written).
type PlaylistState struct {
	PlaylistID string                    `json:"playlist_id"`
	StoreName  string                    `json:"file_search_store_name"`
	CreatedAt  string                    `json:"created_at"`
	LastUpdate string                    `json:"last_updated"`
	Processed  map[string]ProcessedVideo `json:"processed_videos"`
	Failed     map[string]string         `json:"failed_videos"`
}

// NewPlaylistState creates a fresh state bound to the given file search
// store. The caller is responsible for persisting it.
func NewPlaylistState(playlistID, storeName string) *PlaylistState {
	now := time.Now().UTC().Format(time.RFC3339)
	return &PlaylistState{
		PlaylistID: playlistID,
		StoreName:  storeName,
		CreatedAt:  now,
		LastUpdate: now,
		Processed:  make(map[string]ProcessedVideo),
		Failed:     make(map[string]string),
	}
}

// IsProcessed reports whether a video has a successful terminal record.
// A record that carries an error does not count: such videos are retried
// on the next run.
func (s *PlaylistState) IsProcessed(videoID string) bool {
	rec, ok := s.Processed[videoID]
	return ok && rec.Error == ""
}

// AddProcessed stores a terminal attempt record, replacing any prior record
// for the same video (last write wins).
//
// The failure ledger is only cleared when the record itself carries an
// error; a successful record leaves a pre-existing ledger entry in place.
// This mirrors the historical behavior of the state files and readers
// depend on it, so do not "fix" the asymmetry.
func (s *PlaylistState) AddProcessed(rec ProcessedVideo) {
	s.Processed[rec.VideoID] = rec
	s.touch()
	if rec.Error != "" {
		delete(s.Failed, rec.VideoID)
	}
}

// AddFailed records the last failure text for a video whose attempt stopped
// before any terminal record was written.
func (s *PlaylistState) AddFailed(videoID, errText string) {
	s.Failed[videoID] = errText
	s.touch()
}

func (s *PlaylistState) touch() {
	s.LastUpdate = time.Now().UTC().Format(time.RFC3339)
}
