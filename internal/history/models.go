package history

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction is one question/answer exchange against a knowledge base.
type Interaction struct {
	ID         string
	CreatedAt  time.Time
	PlaylistID string
	StoreName  string
	Question   string
	Answer     string
	Model      string
	Sources    string // JSON array stored as text
}
