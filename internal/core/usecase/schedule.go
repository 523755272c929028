package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

// ScheduleConfig carries the chunking defaults applied when a request leaves
// them unset.
type ScheduleConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

func (c ScheduleConfig) normalize() ScheduleConfig {
	out := c
	if out.ChunkSize <= 0 {
		out.ChunkSize = 1000
	}
	if out.ChunkOverlap <= 0 {
		out.ChunkOverlap = 200
	}
	return out
}

// ScheduleIndexUseCase records an index request and publishes it for the
// worker. Re-scheduling an already indexed video resets its record; the worker
// replaces the stored chunks.
type ScheduleIndexUseCase struct {
	repo  ports.IndexRepository
	queue ports.MessageQueue
	cfg   ScheduleConfig
}

func NewScheduleIndexUseCase(
	repo ports.IndexRepository,
	queue ports.MessageQueue,
	cfg ScheduleConfig,
) *ScheduleIndexUseCase {
	return &ScheduleIndexUseCase{
		repo:  repo,
		queue: queue,
		cfg:   cfg.normalize(),
	}
}

func (uc *ScheduleIndexUseCase) Schedule(
	ctx context.Context,
	videoID, namespace string,
	chunkSize, chunkOverlap int,
) (*domain.VideoIndex, error) {
	videoID, err := domain.ValidateVideoID(videoID)
	if err != nil {
		return nil, err
	}

	if chunkSize <= 0 {
		chunkSize = uc.cfg.ChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = uc.cfg.ChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrInvalidInput, "schedule index",
			fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize))
	}

	now := time.Now().UTC()
	idx := &domain.VideoIndex{
		VideoID:      videoID,
		Namespace:    namespace,
		Status:       domain.IndexPending,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.repo.Upsert(ctx, idx); err != nil {
		return nil, fmt.Errorf("save index request: %w", err)
	}
	if err := uc.queue.PublishIndexRequested(ctx, videoID); err != nil {
		return nil, fmt.Errorf("publish index request: %w", err)
	}
	return idx, nil
}
