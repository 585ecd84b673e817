// Package state persists per-playlist processing history as one JSON file
// per playlist. It is pure data access: the pipeline owns all mutation
// rules and the manager only serializes and deserializes.
package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Manager reads and writes playlist state files under a single directory.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates a Manager rooted at dir. The directory is created on
// first save, not here.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, logger: slog.Default()}
}

func (m *Manager) statePath(playlistID string) string {
	return filepath.Join(m.dir, playlistID+".json")
}

// Load returns the persisted state for a playlist, or nil if none exists.
// Malformed or truncated files are treated as absent so corrupt history
// never blocks a run; a warning is logged instead.
func (m *Manager) Load(playlistID string) *PlaylistState {
	data, err := os.ReadFile(m.statePath(playlistID))
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("failed to read state file", "playlist_id", playlistID, "error", err)
		}
		return nil
	}

	var st PlaylistState
	if err := json.Unmarshal(data, &st); err != nil {
		m.logger.Warn("failed to parse state file, treating as absent", "playlist_id", playlistID, "error", err)
		return nil
	}
	if st.PlaylistID == "" || st.StoreName == "" {
		m.logger.Warn("state file missing required fields, treating as absent", "playlist_id", playlistID)
		return nil
	}

	if st.Processed == nil {
		st.Processed = make(map[string]ProcessedVideo)
	}
	if st.Failed == nil {
		st.Failed = make(map[string]string)
	}
	return &st
}

// Save persists the full state, replacing any prior version atomically.
func (m *Manager) Save(st *PlaylistState) error {
	w, err := newAtomicWriter(m.statePath(st.PlaylistID))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

// GetOrCreate returns the loaded state if present, else a fresh state bound
// to storeName. The fresh state is not persisted until the first Save.
func (m *Manager) GetOrCreate(playlistID, storeName string) *PlaylistState {
	if st := m.Load(playlistID); st != nil {
		return st
	}
	return NewPlaylistState(playlistID, storeName)
}

// ListPlaylists enumerates every tracked playlist. Individually corrupt
// state files are skipped, not fatal.
func (m *Manager) ListPlaylists() []*PlaylistState {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}

	var states []*PlaylistState
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if st := m.Load(strings.TrimSuffix(name, ".json")); st != nil {
			states = append(states, st)
		}
	}
	return states
}
