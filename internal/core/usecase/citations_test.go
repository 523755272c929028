package usecase

import (
	"reflect"
	"testing"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

func TestExtractCitationsPreservesOrderAndDuplicates(t *testing.T) {
	got := ExtractCitations("A [Chunk 0] B [Chunk 2] C [Chunk 0]")
	want := []int{0, 2, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractCitations = %v, want %v", got, want)
	}
}

func TestExtractCitationsIgnoresNearMisses(t *testing.T) {
	cases := []string{
		"no citations here",
		"[chunk 0] lowercase",
		"[Chunk0] missing space",
		"[Chunk  1] double space",
		"[Chunk x] not a number",
	}
	for _, text := range cases {
		if got := ExtractCitations(text); len(got) != 0 {
			t.Fatalf("ExtractCitations(%q) = %v, want none", text, got)
		}
	}
}

func TestLinkSourcesDistinctByFirstAppearance(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		{ChunkID: "vid_0", VideoID: "vid", ChunkIndex: 0, Text: "first"},
		{ChunkID: "vid_1", VideoID: "vid", ChunkIndex: 1, Text: "second"},
		{ChunkID: "vid_2", VideoID: "vid", ChunkIndex: 2, Text: "third"},
	}

	links := LinkSources("see [Chunk 0] and [Chunk 2], also [Chunk 5] and [Chunk 0]", chunks)

	wantCitations := []int{0, 2, 5, 0}
	if !reflect.DeepEqual(links.Citations, wantCitations) {
		t.Fatalf("Citations = %v, want %v", links.Citations, wantCitations)
	}
	if len(links.Sources) != 2 {
		t.Fatalf("expected 2 distinct sources, got %d", len(links.Sources))
	}
	if links.Sources[0].ChunkID != "vid_0" || links.Sources[1].ChunkID != "vid_2" {
		t.Fatalf("sources not in first-appearance order: %+v", links.Sources)
	}
	if links.ValidCount != 2 {
		t.Fatalf("ValidCount = %d, want 2", links.ValidCount)
	}
}

func TestLinkSourcesNoCitations(t *testing.T) {
	links := LinkSources("plain answer", []domain.RetrievedChunk{{ChunkID: "v_0"}})
	if len(links.Citations) != 0 || len(links.Sources) != 0 || links.ValidCount != 0 {
		t.Fatalf("expected empty links, got %+v", links)
	}
}

func TestRemoveCitationsCollapsesWhitespace(t *testing.T) {
	got := RemoveCitations("Fact one [Chunk 0]. Fact two [Chunk 1].")
	want := "Fact one. Fact two."
	if got != want {
		t.Fatalf("RemoveCitations = %q, want %q", got, want)
	}
}

func TestRemoveCitationsLeavesPlainTextAlone(t *testing.T) {
	got := RemoveCitations("nothing to strip here")
	if got != "nothing to strip here" {
		t.Fatalf("unexpected mutation: %q", got)
	}
}
