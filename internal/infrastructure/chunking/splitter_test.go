package chunking

import (
	"strings"
	"testing"
)

func TestSplitProducesOverlappingChunks(t *testing.T) {
	// 2118 chars at size 1000 / overlap 200 covers [0,1000), [800,1800), [1600,2118).
	text := strings.Repeat("a", 2118)
	s := NewSplitter(1000, 200)

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 {
		t.Fatalf("full chunks have lengths %d, %d", len(chunks[0]), len(chunks[1]))
	}
	if len(chunks[2]) != 518 {
		t.Fatalf("tail chunk length = %d, want 518", len(chunks[2]))
	}
}

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("short transcript")
	if len(chunks) != 1 || chunks[0] != "short transcript" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil, got %v", chunks)
	}
	if chunks := s.Split("   \n\t  "); len(chunks) != 0 {
		t.Fatalf("whitespace-only text must yield no chunks, got %v", chunks)
	}
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("ф", 150)
	s := NewSplitter(100, 20)

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if n := len([]rune(chunks[0])); n != 100 {
		t.Fatalf("first chunk rune length = %d, want 100", n)
	}
}

func TestNewSplitterClampsBadParams(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 1000 || s.Overlap != 200 {
		t.Fatalf("defaults not applied: %+v", s)
	}

	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("overlap >= size must clamp to size/4, got %d", s.Overlap)
	}
}
