package usecase

import (
	"strings"
	"testing"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

func TestFormatContextLabelsByPosition(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		{ChunkID: "vid_7", ChunkIndex: 7, Text: "seventh chunk"},
		{ChunkID: "vid_2", ChunkIndex: 2, Text: "second chunk"},
	}

	got := formatContext(chunks, true)
	if !strings.Contains(got, "[Chunk 0]\nseventh chunk") {
		t.Fatalf("first chunk must be labeled by list position, got:\n%s", got)
	}
	if !strings.Contains(got, "[Chunk 1]\nsecond chunk") {
		t.Fatalf("second chunk must be labeled by list position, got:\n%s", got)
	}
}

func TestFormatContextWithoutMarkers(t *testing.T) {
	chunks := []domain.RetrievedChunk{{Text: "plain text"}}
	got := formatContext(chunks, false)
	if strings.Contains(got, "[Chunk") {
		t.Fatalf("markers leaked into plain context: %s", got)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := formatContext(nil, true); got != "No context available." {
		t.Fatalf("formatContext(nil) = %q", got)
	}
}

func TestBuildQAPromptSelectsTemplate(t *testing.T) {
	chunks := []domain.RetrievedChunk{{Text: "context text"}}

	plain := buildQAPrompt("the question", chunks, false)
	if !strings.Contains(plain, "context text") || !strings.Contains(plain, "the question") {
		t.Fatalf("plain prompt missing slots:\n%s", plain)
	}
	if strings.Contains(plain, "citation") {
		t.Fatalf("plain prompt must not mention citations:\n%s", plain)
	}

	cited := buildQAPrompt("the question", chunks, true)
	if !strings.Contains(cited, "[Chunk 0]") {
		t.Fatalf("citation prompt missing chunk label:\n%s", cited)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("estimateTokens = %d, want 100", got)
	}
}
