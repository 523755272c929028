package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

// NoContextAnswer is the canned reply for a normal empty retrieval outcome.
const NoContextAnswer = "I couldn't find any relevant information to answer this question."

// AnswerConfig carries the generation defaults for the QA pipeline.
type AnswerConfig struct {
	TopK             int
	Temperature      float64
	MaxTokens        int
	MaxPromptTokens  int
	DefaultRetriever string
}

func (c AnswerConfig) normalize() AnswerConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = defaultTopK
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 500
	}
	if out.MaxPromptTokens <= 0 {
		out.MaxPromptTokens = 6000
	}
	if out.DefaultRetriever == "" {
		out.DefaultRetriever = RetrieverHybrid
	}
	return out
}

// AnswerUseCase runs the full QA cycle: retrieve, build prompt, generate,
// link citations. The retriever strategy is picked per request from the
// configured set.
type AnswerUseCase struct {
	retrievers map[string]Retriever
	generator  ports.Generator
	cfg        AnswerConfig
	logger     *slog.Logger
}

func NewAnswerUseCase(
	dense *DenseRetriever,
	rewriting *RewritingRetriever,
	hybrid *HybridRetriever,
	generator ports.Generator,
	cfg AnswerConfig,
	logger *slog.Logger,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retrievers: map[string]Retriever{
			RetrieverDense:     dense,
			RetrieverRewriting: rewriting,
			RetrieverHybrid:    hybrid,
		},
		generator: generator,
		cfg:       cfg.normalize(),
		logger:    logger,
	}
}

func (uc *AnswerUseCase) retrieverFor(name string) (Retriever, error) {
	if name == "" {
		name = uc.cfg.DefaultRetriever
	}
	retriever, ok := uc.retrievers[name]
	if !ok || retriever == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "select retriever",
			fmt.Errorf("unknown retriever %q: must be one of %s, %s, %s",
				name, RetrieverDense, RetrieverRewriting, RetrieverHybrid))
	}
	return retriever, nil
}

// Answer validates the request, retrieves context and generates a grounded
// answer. An empty retrieval is a normal outcome answered with NoContextAnswer,
// never an error.
func (uc *AnswerUseCase) Answer(ctx context.Context, req ports.QARequest) (*domain.Answer, error) {
	start := time.Now()

	retriever, chunks, err := uc.retrieveContext(ctx, req)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		Question:        req.Question,
		Citations:       []int{},
		Sources:         []domain.RetrievedChunk{},
		RetrievedChunks: len(chunks),
		RetrieverType:   retriever.Type(),
	}

	if len(chunks) == 0 {
		answer.Text = NoContextAnswer
		answer.DurationMS = time.Since(start).Milliseconds()
		return answer, nil
	}

	prompt, err := uc.buildPrompt(req.Question, chunks, req.IncludeCitations)
	if err != nil {
		return nil, err
	}

	text, err := uc.generator.Generate(ctx, prompt, ports.GenerationOptions{
		Temperature: uc.cfg.Temperature,
		MaxTokens:   uc.cfg.MaxTokens,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}
	answer.Text = text

	if req.IncludeCitations {
		links := LinkSources(text, chunks)
		answer.Citations = links.Citations
		answer.Sources = links.Sources
		answer.NumSources = links.ValidCount
	}

	answer.DurationMS = time.Since(start).Milliseconds()
	uc.logger.Info("qa_complete",
		"retriever", answer.RetrieverType,
		"retrieved_chunks", answer.RetrievedChunks,
		"citations", len(answer.Citations),
		"valid_sources", answer.NumSources,
		"duration_ms", answer.DurationMS,
	)
	return answer, nil
}

// AnswerStream runs retrieval and prompt construction synchronously, then
// forwards each generation increment to emit as it arrives. Citations are
// disabled while streaming: marker positions are unstable mid-stream.
func (uc *AnswerUseCase) AnswerStream(ctx context.Context, req ports.QARequest, emit func(string) error) error {
	_, chunks, err := uc.retrieveContext(ctx, req)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return emit(NoContextAnswer)
	}

	prompt, err := uc.buildPrompt(req.Question, chunks, false)
	if err != nil {
		return err
	}

	err = uc.generator.GenerateStream(ctx, prompt, ports.GenerationOptions{
		Temperature: uc.cfg.Temperature,
		MaxTokens:   uc.cfg.MaxTokens,
	}, emit)
	if err != nil {
		return domain.WrapError(domain.ErrGeneration, "stream answer", err)
	}
	return nil
}

func (uc *AnswerUseCase) retrieveContext(
	ctx context.Context,
	req ports.QARequest,
) (Retriever, []domain.RetrievedChunk, error) {
	question, err := validateQuery(req.Question)
	if err != nil {
		return nil, nil, err
	}

	retriever, err := uc.retrieverFor(req.Retriever)
	if err != nil {
		return nil, nil, err
	}

	filter := domain.SearchFilter{Namespace: req.Namespace}
	if req.VideoID != "" {
		videoID, err := domain.ValidateVideoID(req.VideoID)
		if err != nil {
			return nil, nil, err
		}
		filter.VideoID = videoID
	}

	topK := req.TopK
	if topK <= 0 {
		topK = uc.cfg.TopK
	}

	chunks, err := retriever.Retrieve(ctx, question, topK, filter)
	if err != nil {
		return nil, nil, err
	}
	return retriever, chunks, nil
}

func (uc *AnswerUseCase) buildPrompt(
	question string,
	chunks []domain.RetrievedChunk,
	includeCitations bool,
) (string, error) {
	prompt := buildQAPrompt(question, chunks, includeCitations)
	if tokens := estimateTokens(prompt); tokens > uc.cfg.MaxPromptTokens {
		return "", domain.WrapError(domain.ErrInvalidInput, "build prompt",
			fmt.Errorf("prompt too long: ~%d tokens (max %d)", tokens, uc.cfg.MaxPromptTokens))
	}
	return prompt, nil
}
