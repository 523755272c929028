package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

// ChunkerFactory builds a splitter for the chunking parameters stored with an
// index request. The core stays independent of the splitter implementation.
type ChunkerFactory func(chunkSize, chunkOverlap int) ports.Chunker

// IndexVideoUseCase runs the full indexing pipeline for one queued video:
// fetch transcript, split, embed, replace the stored chunks, record status.
type IndexVideoUseCase struct {
	repo        ports.IndexRepository
	transcripts ports.TranscriptSource
	newChunker  ChunkerFactory
	embedder    ports.Embedder
	vectorDB    ports.VectorStore
	languages   []string
	logger      *slog.Logger
}

func NewIndexVideoUseCase(
	repo ports.IndexRepository,
	transcripts ports.TranscriptSource,
	newChunker ChunkerFactory,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	languages []string,
	logger *slog.Logger,
) *IndexVideoUseCase {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexVideoUseCase{
		repo:        repo,
		transcripts: transcripts,
		newChunker:  newChunker,
		embedder:    embedder,
		vectorDB:    vectorDB,
		languages:   languages,
		logger:      logger,
	}
}

func (uc *IndexVideoUseCase) ProcessVideo(ctx context.Context, videoID string) error {
	start := time.Now()

	idx, err := uc.repo.GetByVideoID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load index request: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, videoID, domain.IndexProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	numChunks, err := uc.runPipeline(ctx, idx)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, videoID, domain.IndexFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, videoID, numChunks); err != nil {
		return fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, videoID, domain.IndexReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.logger.Info("index_complete",
		"video_id", videoID,
		"chunks", numChunks,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (uc *IndexVideoUseCase) runPipeline(ctx context.Context, idx *domain.VideoIndex) (int, error) {
	transcript, err := uc.transcripts.Fetch(ctx, idx.VideoID, uc.languages)
	if err != nil {
		return 0, fmt.Errorf("fetch transcript: %w", err)
	}
	if transcript.Text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "fetch transcript", errors.New("empty transcript text"))
	}

	texts := uc.newChunker(idx.ChunkSize, idx.ChunkOverlap).Split(transcript.Text)
	if len(texts) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk transcript", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, domain.WrapError(domain.ErrInvalidInput, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(texts)))
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(idx.VideoID, i),
			VideoID:    idx.VideoID,
			ChunkIndex: i,
			Text:       text,
			Embedding:  vectors[i],
		})
	}

	// Purge first so a shrinking re-index leaves no stale trailing chunks;
	// stable ids make the upsert itself a replace for surviving indexes.
	filter := domain.SearchFilter{VideoID: idx.VideoID, Namespace: idx.Namespace}
	if err := uc.vectorDB.DeleteByFilter(ctx, filter); err != nil {
		return 0, fmt.Errorf("purge previous chunks: %w", err)
	}
	if err := uc.vectorDB.UpsertChunks(ctx, idx.Namespace, chunks); err != nil {
		return 0, fmt.Errorf("index chunks in vector db: %w", err)
	}
	return len(chunks), nil
}

// IndexStatusUseCase answers status/delete requests against the repo and the
// live vector store.
type IndexStatusUseCase struct {
	repo     ports.IndexRepository
	vectorDB ports.VectorStore
}

func NewIndexStatusUseCase(repo ports.IndexRepository, vectorDB ports.VectorStore) *IndexStatusUseCase {
	return &IndexStatusUseCase{
		repo:     repo,
		vectorDB: vectorDB,
	}
}

func (uc *IndexStatusUseCase) Status(ctx context.Context, videoID string) (*domain.VideoIndex, error) {
	videoID, err := domain.ValidateVideoID(videoID)
	if err != nil {
		return nil, err
	}

	idx, err := uc.repo.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	// Report the live chunk count, not the recorded one: the vector store is
	// the source of truth for what is actually searchable.
	count, err := uc.vectorDB.CountByFilter(ctx, domain.SearchFilter{
		VideoID:   videoID,
		Namespace: idx.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("count indexed chunks: %w", err)
	}
	idx.NumChunks = count
	return idx, nil
}

func (uc *IndexStatusUseCase) Delete(ctx context.Context, videoID, namespace string) error {
	videoID, err := domain.ValidateVideoID(videoID)
	if err != nil {
		return err
	}

	if err := uc.vectorDB.DeleteByFilter(ctx, domain.SearchFilter{
		VideoID:   videoID,
		Namespace: namespace,
	}); err != nil {
		return fmt.Errorf("delete indexed chunks: %w", err)
	}

	err = uc.repo.UpdateStatus(ctx, videoID, domain.IndexDeleted, "")
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return fmt.Errorf("mark index deleted: %w", err)
	}
	return nil
}
