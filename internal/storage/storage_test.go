package storage

import (
	"errors"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPerftCache(t *testing.T) {
	s := openTest(t)
	const fen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

	if _, ok, err := s.LoadPerft(fen, 5); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := s.StorePerft(fen, 5, 4865609); err != nil {
		t.Fatal(err)
	}
	if err := s.StorePerft(fen, 4, 197281); err != nil {
		t.Fatal(err)
	}
	nodes, ok, err := s.LoadPerft(fen, 5)
	if err != nil || !ok || nodes != 4865609 {
		t.Errorf("LoadPerft = %d, %v, %v", nodes, ok, err)
	}
	nodes, _, _ = s.LoadPerft(fen, 4)
	if nodes != 197281 {
		t.Errorf("depth 4 = %d", nodes)
	}
}

func TestRatings(t *testing.T) {
	s := openTest(t)

	if _, err := s.LoadRating("Classical v1.0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	for _, r := range []Rating{
		{Name: "Random v1.0", Elo: 1320, Games: 10, Losses: 10},
		{Name: "Classical v1.0", Elo: 1680, Games: 10, Wins: 9, Draws: 1},
		{Name: "Neural-v001", Elo: 1500},
	} {
		if err := s.SaveRating(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveRating(Rating{Elo: 1}); err == nil {
		t.Error("Expected error for unnamed rating")
	}

	got, err := s.LoadRating("Classical v1.0")
	if err != nil {
		t.Fatal(err)
	}
	if got.Elo != 1680 || got.Updated.IsZero() {
		t.Errorf("Loaded %+v", got)
	}
	if score := got.Score(); score != 0.95 {
		t.Errorf("Expected score 0.95, got %.2f", score)
	}

	all, err := s.Ratings()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range all {
		names = append(names, r.Name)
	}
	want := []string{"Classical v1.0", "Neural-v001", "Random v1.0"}
	if len(names) != len(want) {
		t.Fatalf("Ratings = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Ratings order = %v, want %v", names, want)
			break
		}
	}
}

func TestMatches(t *testing.T) {
	s := openTest(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, black := range []string{"Random v1.0", "Neural-v001"} {
		id, err := s.SaveMatch(MatchRecord{
			White:    "Classical v1.0",
			Black:    black,
			Wins:     3,
			Draws:    1,
			Depth:    2,
			PGN:      []string{"1. e4 e5 *"},
			PlayedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
		if id == "" {
			t.Error("Expected a match ID")
		}
	}

	ms, err := s.Matches()
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(ms))
	}
	if ms[0].Black != "Random v1.0" || ms[1].Black != "Neural-v001" {
		t.Errorf("Matches out of order: %s, %s", ms[0].Black, ms[1].Black)
	}
	if ms[0].Wins != 3 || len(ms[0].PGN) != 1 {
		t.Errorf("Loaded %+v", ms[0])
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRating(Rating{Name: "Classical v1.0", Elo: 1550}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	r, err := s.LoadRating("Classical v1.0")
	if err != nil || r.Elo != 1550 {
		t.Errorf("After reopen: %+v, %v", r, err)
	}
}

func TestDataDirHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("APPDATA", dir)

	got, err := DatabaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatal("Expected a database directory")
	}
	if _, err := ModelDir(); err != nil {
		t.Fatal(err)
	}
}
