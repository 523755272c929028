package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

const queryRewritePrompt = `You are an expert at reformulating user queries to improve search results.

Given a user's query, rewrite it to be more specific, clear, and optimized for semantic search.

Rules:
1. Expand abbreviations (e.g., "ML" -> "machine learning")
2. Add context if the query is vague
3. Fix typos and grammar
4. Make it a complete question or statement
5. Keep the core intent of the original query
6. Output ONLY the rewritten query, nothing else

Examples:
User query: "what's rag"
Rewritten: "What is Retrieval-Augmented Generation and how does it work?"

User query: "transformr model"
Rewritten: "What is a transformer model in machine learning?"

User query: "train llm"
Rewritten: "How are large language models trained?"

Now rewrite this query:
User query: %s
Rewritten:`

const rewriteMaxTokens = 120

// RewritingRetriever asks the LLM for a clearer reformulation of the query
// before delegating to the base retriever. Rewriting is a quality enhancement,
// never a hard dependency: any rewrite failure falls back to the original
// query. Temperature is pinned to zero to keep rewrites stable.
type RewritingRetriever struct {
	base      Retriever
	generator ports.Generator
	logger    *slog.Logger
}

func NewRewritingRetriever(base Retriever, generator ports.Generator, logger *slog.Logger) *RewritingRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &RewritingRetriever{
		base:      base,
		generator: generator,
		logger:    logger,
	}
}

func (r *RewritingRetriever) Type() string { return RetrieverRewriting }

func (r *RewritingRetriever) Retrieve(
	ctx context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	return r.base.Retrieve(ctx, r.RewriteQuery(ctx, query), topK, filter)
}

// RewriteQuery always returns a usable query string: on LLM failure or a
// degenerate rewrite it falls back to the original query.
func (r *RewritingRetriever) RewriteQuery(ctx context.Context, query string) string {
	prompt := buildRewritePrompt(query)
	rewritten, err := r.generator.Generate(ctx, prompt, ports.GenerationOptions{
		Temperature: 0,
		MaxTokens:   rewriteMaxTokens,
	})
	if err != nil {
		r.logger.Warn("query_rewrite_failed", "error", err)
		return query
	}

	rewritten = strings.Trim(strings.TrimSpace(rewritten), `"`)
	if rewritten == "" || len(rewritten) > maxQueryChars {
		r.logger.Warn("query_rewrite_discarded", "rewritten_len", len(rewritten))
		return query
	}

	r.logger.Debug("query_rewritten", "original", query, "rewritten", rewritten)
	return rewritten
}
