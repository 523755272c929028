package ports

import (
	"context"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

// QARequest is the inbound shape of one question.
type QARequest struct {
	Question         string
	VideoID          string
	Namespace        string
	TopK             int
	Retriever        string
	IncludeCitations bool
}

// QuestionAnswerer is the inbound contract for the QA pipeline.
type QuestionAnswerer interface {
	Answer(ctx context.Context, req QARequest) (*domain.Answer, error)
	AnswerStream(ctx context.Context, req QARequest, emit func(string) error) error
}

// IndexScheduler records an index request and hands it to the worker queue.
type IndexScheduler interface {
	Schedule(ctx context.Context, videoID, namespace string, chunkSize, chunkOverlap int) (*domain.VideoIndex, error)
}

// IndexProcessor is the inbound contract for asynchronous index jobs.
type IndexProcessor interface {
	ProcessVideo(ctx context.Context, videoID string) error
}

// IndexReader reads indexing state and purges indexed content.
type IndexReader interface {
	Status(ctx context.Context, videoID string) (*domain.VideoIndex, error)
	Delete(ctx context.Context, videoID, namespace string) error
}
