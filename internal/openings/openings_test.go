package openings

import (
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestDefaultSuiteIsLegal(t *testing.T) {
	s, err := FromLines(Default)
	if err != nil {
		t.Fatalf("Default suite: %v", err)
	}
	if s.Len() != len(Default) {
		t.Errorf("Expected %d lines, got %d", len(Default), s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		line := s.Line(i)
		pos := board.NewPosition()
		for _, m := range line.Moves {
			var legal board.MoveList
			pos.GenerateLegal(&legal)
			if !legal.Contains(m) {
				t.Fatalf("line %d: %s is not legal", i, m)
			}
			pos.MakeMove(m)
		}
		if pos.FEN() != line.FEN {
			t.Errorf("line %d: FEN %s, want %s", i, line.FEN, pos.FEN())
		}
	}
}

func TestLoadReader(t *testing.T) {
	src := `# transpositions collapse
g1f3 g8f6 b1c3
b1c3 g8f6 g1f3

d2d4`
	s, err := LoadReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Failed to load suite: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Expected 2 lines, got %d", s.Len())
	}
	if got := s.Line(1).FEN; got != "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 1" {
		t.Errorf("line 2 FEN = %s", got)
	}

	for i := 0; i < 20; i++ {
		moves := s.Random()
		if n := len(moves); n != 3 && n != 1 {
			t.Errorf("Random returned %d moves", n)
		}
	}
}

func TestLineIsCopy(t *testing.T) {
	s, err := FromLines([]string{"e2e4 e7e5"})
	if err != nil {
		t.Fatal(err)
	}
	s.Line(0).Moves[0] = board.NoMove
	if s.Line(0).Moves[0] == board.NoMove {
		t.Error("Line exposed the suite's moves")
	}
}

func TestEmptySuite(t *testing.T) {
	s := New()
	if s.Random() != nil {
		t.Error("Expected no line from an empty suite")
	}
	var nilSuite *Suite
	if nilSuite.Len() != 0 {
		t.Error("nil suite has lines")
	}
}

func TestRejectsIllegalLine(t *testing.T) {
	if _, err := FromLines([]string{"e2e4 e2e4"}); err == nil {
		t.Error("Expected error for illegal line")
	}
}
