package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

func TestValidateQueryTrimsAndBounds(t *testing.T) {
	got, err := validateQuery("  what is attention?  ")
	if err != nil {
		t.Fatalf("validateQuery: %v", err)
	}
	if got != "what is attention?" {
		t.Fatalf("validateQuery = %q", got)
	}

	if _, err := validateQuery(""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("empty query: expected ErrInvalidInput, got %v", err)
	}
	if _, err := validateQuery(strings.Repeat("a", maxQueryChars+1)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("oversized query: expected ErrInvalidInput, got %v", err)
	}
	if _, err := validateQuery(strings.Repeat("a", maxQueryChars)); err != nil {
		t.Fatalf("query at limit should pass: %v", err)
	}
}

func TestDenseRetrieverPassesFilterAndSetsRanks(t *testing.T) {
	store := &fakeVectorStore{searchResults: []domain.RetrievedChunk{
		{ChunkID: "vid_0", Score: 0.8},
		{ChunkID: "vid_1", Score: 0.4},
	}}
	r := NewDenseRetriever(&fakeEmbedder{}, store, 4)

	filter := domain.SearchFilter{VideoID: "dQw4w9WgXcQ", Namespace: "default"}
	results, err := r.Retrieve(context.Background(), "question", 2, filter)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.searchFilter != filter {
		t.Fatalf("filter not forwarded: %+v", store.searchFilter)
	}
	for i, c := range results {
		if c.Rank != i {
			t.Fatalf("result %d rank = %d", i, c.Rank)
		}
		if c.DenseScore != c.Score {
			t.Fatalf("result %d DenseScore %v != Score %v", i, c.DenseScore, c.Score)
		}
	}
}

func TestDenseRetrieverDefaultTopK(t *testing.T) {
	store := &fakeVectorStore{}
	r := NewDenseRetriever(&fakeEmbedder{}, store, 7)

	if _, err := r.Retrieve(context.Background(), "question", 0, domain.SearchFilter{}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.searchLimit != 7 {
		t.Fatalf("searchLimit = %d, want instance default 7", store.searchLimit)
	}
}

func TestDenseRetrieverWrapsEmbedderFailure(t *testing.T) {
	r := NewDenseRetriever(&fakeEmbedder{embedQueryErr: errors.New("model offline")}, &fakeVectorStore{}, 4)
	if _, err := r.Retrieve(context.Background(), "question", 4, domain.SearchFilter{}); !domain.IsKind(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestRewritingRetrieverUsesRewrittenQuery(t *testing.T) {
	store := &fakeVectorStore{searchResults: []domain.RetrievedChunk{{ChunkID: "vid_0", Text: "answer text", Score: 0.9}}}
	embedder := &fakeEmbedder{}
	base := NewDenseRetriever(embedder, store, 4)
	gen := &fakeGenerator{response: "What is Retrieval-Augmented Generation and how does it work?"}
	r := NewRewritingRetriever(base, gen, discardLogger())

	results, err := r.Retrieve(context.Background(), "what's rag", 4, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "what's rag") {
		t.Fatalf("rewrite prompt missing original query: %v", gen.prompts)
	}
	if gen.lastOpts.Temperature != 0 {
		t.Fatalf("rewrite temperature = %v, want 0", gen.lastOpts.Temperature)
	}
}

func TestRewriteQueryFallsBackOnGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm unavailable")}
	r := NewRewritingRetriever(nil, gen, discardLogger())

	if got := r.RewriteQuery(context.Background(), "original query"); got != "original query" {
		t.Fatalf("RewriteQuery = %q, want original query back", got)
	}
}

func TestRewriteQueryDiscardsDegenerateOutput(t *testing.T) {
	for _, response := range []string{"", "   ", `""`, strings.Repeat("x", maxQueryChars+1)} {
		gen := &fakeGenerator{response: response}
		r := NewRewritingRetriever(nil, gen, discardLogger())
		if got := r.RewriteQuery(context.Background(), "original query"); got != "original query" {
			t.Fatalf("response %q: RewriteQuery = %q, want fallback", response, got)
		}
	}
}

func TestRewriteQueryTrimsQuotes(t *testing.T) {
	gen := &fakeGenerator{response: `"How are large language models trained?"`}
	r := NewRewritingRetriever(nil, gen, discardLogger())

	if got := r.RewriteQuery(context.Background(), "train llm"); got != "How are large language models trained?" {
		t.Fatalf("RewriteQuery = %q", got)
	}
}
