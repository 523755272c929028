package ports

import (
	"context"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

// TranscriptSource fetches raw timed transcripts for a video.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string, languages []string) (*domain.Transcript, error)
}

// Embedder builds vectors for chunk texts and query text. The vector dimension
// is a deployment-wide constant.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits transcript text into retrievable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorStore persists embedded chunks and performs similarity search.
// Upserting the same chunk id replaces the stored point.
type VectorStore interface {
	UpsertChunks(ctx context.Context, namespace string, chunks []domain.Chunk) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	DeleteByFilter(ctx context.Context, filter domain.SearchFilter) error
	CountByFilter(ctx context.Context, filter domain.SearchFilter) (int, error)
}

// GenerationOptions tune a single LLM call.
type GenerationOptions struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces answer text from a fully built prompt. GenerateStream
// invokes emit for every text increment as it arrives.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts GenerationOptions, emit func(string) error) error
}

// IndexRepository persists video indexing state.
type IndexRepository interface {
	Upsert(ctx context.Context, idx *domain.VideoIndex) error
	GetByVideoID(ctx context.Context, videoID string) (*domain.VideoIndex, error)
	UpdateStatus(ctx context.Context, videoID string, status domain.IndexStatus, errMessage string) error
	SetChunkCount(ctx context.Context, videoID string, numChunks int) error
}

// MessageQueue publishes/consumes index-job events.
type MessageQueue interface {
	PublishIndexRequested(ctx context.Context, videoID string) error
	SubscribeIndexRequested(ctx context.Context, handler func(context.Context, string) error) error
}
