package history

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetInteraction(t *testing.T) {
	s := openTestStore(t)

	id := uuid.New().String()
	in := Interaction{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		PlaylistID: "PLx",
		StoreName:  "fileSearchStores/s1",
		Question:   "What is covered in video 3?",
		Answer:     "It covers goroutines.",
		Model:      "gemini-2.5-flash",
		Sources:    `["youtube-v3"]`,
	}
	if err := s.SaveInteraction(in); err != nil {
		t.Fatalf("SaveInteraction: %v", err)
	}

	got, err := s.GetInteraction(id)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if got.Question != in.Question || got.Answer != in.Answer || got.Sources != in.Sources {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt lost in round trip")
	}
}

func TestGetInteractionNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetInteraction("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentInteractionsFilterAndOrder(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, pl := range []string{"PLa", "PLb", "PLa"} {
		if err := s.SaveInteraction(Interaction{
			ID:         uuid.New().String(),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			PlaylistID: pl,
			StoreName:  "fileSearchStores/s1",
			Question:   "q",
			Answer:     "a",
		}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.RecentInteractions("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d", len(all))
	}
	if !all[0].CreatedAt.After(all[1].CreatedAt) {
		t.Error("interactions should be newest first")
	}

	onlyA, err := s.RecentInteractions("PLa", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyA) != 2 {
		t.Errorf("len(onlyA) = %d", len(onlyA))
	}

	limited, err := s.RecentInteractions("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored, got %d", len(limited))
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopening must not re-apply migrations.
	s, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	s.Close()
}
