package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

// Retriever strategy names, selected per request or via config.
const (
	RetrieverDense     = "dense"
	RetrieverRewriting = "rewriting"
	RetrieverHybrid    = "hybrid"
)

const (
	defaultTopK   = 4
	maxQueryChars = 1000
)

// Retriever produces a ranked chunk list for a query. topK <= 0 falls back to
// the instance default.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	Type() string
}

func validateQuery(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "validate query", errors.New("query is empty"))
	}
	if len(trimmed) > maxQueryChars {
		return "", domain.WrapError(domain.ErrInvalidInput, "validate query",
			fmt.Errorf("query too long: %d characters (max %d)", len(trimmed), maxQueryChars))
	}
	return trimmed, nil
}

// DenseRetriever embeds the query and runs a similarity search against the
// vector store, optionally constrained to one video. Result order and scores
// come straight from the store.
type DenseRetriever struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
	topK     int
}

func NewDenseRetriever(embedder ports.Embedder, vectorDB ports.VectorStore, topK int) *DenseRetriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &DenseRetriever{
		embedder: embedder,
		vectorDB: vectorDB,
		topK:     topK,
	}
}

func (r *DenseRetriever) Type() string { return RetrieverDense }

func (r *DenseRetriever) Retrieve(
	ctx context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = r.topK
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "embed query", err)
	}

	chunks, err := r.vectorDB.Search(ctx, queryVector, topK, filter)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "vector search", err)
	}

	for i := range chunks {
		chunks[i].Rank = i
		chunks[i].DenseScore = chunks[i].Score
	}
	return chunks, nil
}
