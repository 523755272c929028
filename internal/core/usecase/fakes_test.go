package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

type fakeEmbedder struct {
	embedErr      error
	embedQueryErr error
	embedCalls    int
	queryCalls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if f.embedQueryErr != nil {
		return nil, f.embedQueryErr
	}
	return []float32{float32(len(text))}, nil
}

type fakeVectorStore struct {
	searchResults []domain.RetrievedChunk
	searchErr     error
	searchLimit   int
	searchFilter  domain.SearchFilter

	upserted   []domain.Chunk
	upsertNS   string
	upsertErr  error
	deletedBy  []domain.SearchFilter
	deleteErr  error
	countValue int
	countErr   error
}

func (f *fakeVectorStore) UpsertChunks(_ context.Context, namespace string, chunks []domain.Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertNS = namespace
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, _ []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	f.searchLimit = limit
	f.searchFilter = filter
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	results := f.searchResults
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]domain.RetrievedChunk, len(results))
	copy(out, results)
	return out, nil
}

func (f *fakeVectorStore) DeleteByFilter(_ context.Context, filter domain.SearchFilter) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedBy = append(f.deletedBy, filter)
	return nil
}

func (f *fakeVectorStore) CountByFilter(_ context.Context, _ domain.SearchFilter) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.countValue, nil
}

type fakeGenerator struct {
	response   string
	err        error
	streamErr  error
	increments []string
	prompts    []string
	lastOpts   ports.GenerationOptions
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, opts ports.GenerationOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) GenerateStream(_ context.Context, prompt string, opts ports.GenerationOptions, emit func(string) error) error {
	f.prompts = append(f.prompts, prompt)
	f.lastOpts = opts
	if f.streamErr != nil {
		return f.streamErr
	}
	increments := f.increments
	if increments == nil && f.response != "" {
		increments = strings.SplitAfter(f.response, " ")
	}
	for _, inc := range increments {
		if err := emit(inc); err != nil {
			return err
		}
	}
	return nil
}

type fakeIndexRepo struct {
	mu      sync.Mutex
	records map[string]*domain.VideoIndex

	upsertErr error
	getErr    error
	statusErr error
}

func newFakeIndexRepo() *fakeIndexRepo {
	return &fakeIndexRepo{records: make(map[string]*domain.VideoIndex)}
}

func (f *fakeIndexRepo) Upsert(_ context.Context, idx *domain.VideoIndex) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *idx
	f.records[idx.VideoID] = &cp
	return nil
}

func (f *fakeIndexRepo) GetByVideoID(_ context.Context, videoID string) (*domain.VideoIndex, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[videoID]
	if !ok {
		return nil, fmt.Errorf("get video index: %w", domain.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeIndexRepo) UpdateStatus(_ context.Context, videoID string, status domain.IndexStatus, errMessage string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[videoID]; ok {
		rec.Status = status
		rec.Error = errMessage
	}
	return nil
}

func (f *fakeIndexRepo) SetChunkCount(_ context.Context, videoID string, numChunks int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[videoID]; ok {
		rec.NumChunks = numChunks
	}
	return nil
}

func (f *fakeIndexRepo) status(videoID string) domain.IndexStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[videoID]; ok {
		return rec.Status
	}
	return ""
}

type fakeQueue struct {
	published  []string
	publishErr error
}

func (f *fakeQueue) PublishIndexRequested(_ context.Context, videoID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, videoID)
	return nil
}

func (f *fakeQueue) SubscribeIndexRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeTranscriptSource struct {
	transcript *domain.Transcript
	err        error
}

func (f *fakeTranscriptSource) Fetch(_ context.Context, videoID string, _ []string) (*domain.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.transcript != nil {
		return f.transcript, nil
	}
	return &domain.Transcript{VideoID: videoID, Text: "fallback transcript text", Language: "en"}, nil
}

type fakeChunker struct {
	chunks []string
}

func (f *fakeChunker) Split(string) []string { return f.chunks }
