package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

// Default fusion weights. Semantic relevance carries more signal than exact
// keyword overlap; the lexical side is a precision boost.
const (
	DefaultDenseWeight  = 0.7
	DefaultSparseWeight = 0.3

	// The dense stage oversamples so the sparse/fusion stage has enough
	// material to re-rank without starving the final topK.
	oversampleFactor = 2

	weightSumTolerance = 0.01
)

// HybridRetriever combines dense (semantic) and sparse (lexical) search into
// one ranking. The sparse corpus is exactly the dense candidate set for the
// current query, so a dense-stage failure aborts the whole call, while sparse
// finding nothing degrades gracefully to a dense-only ranking.
type HybridRetriever struct {
	dense        *DenseRetriever
	denseWeight  float64
	sparseWeight float64
	topK         int
	logger       *slog.Logger
}

// NewHybridRetriever validates the fusion weights. Weights outside [0,1] are
// rejected; weights that do not sum to 1.0 are allowed but logged, since the
// skewed ranking is still deterministic.
func NewHybridRetriever(
	dense *DenseRetriever,
	denseWeight, sparseWeight float64,
	topK int,
	logger *slog.Logger,
) (*HybridRetriever, error) {
	if denseWeight < 0 || denseWeight > 1 || sparseWeight < 0 || sparseWeight > 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "hybrid weights",
			errors.New("weights must be between 0 and 1"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	if math.Abs(denseWeight+sparseWeight-1.0) > weightSumTolerance {
		logger.Warn("hybrid_weights_skewed",
			"dense_weight", denseWeight,
			"sparse_weight", sparseWeight,
		)
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	return &HybridRetriever{
		dense:        dense,
		denseWeight:  denseWeight,
		sparseWeight: sparseWeight,
		topK:         topK,
		logger:       logger,
	}, nil
}

func (h *HybridRetriever) Type() string { return RetrieverHybrid }

type hybridCandidate struct {
	chunk       domain.RetrievedChunk
	fusedScore  float64
	denseScore  float64
	sparseScore float64
}

func (h *HybridRetriever) Retrieve(
	ctx context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	k := topK
	if k <= 0 {
		k = h.topK
	}

	// Dense candidates bound the sparse search space: the metadata filter
	// applies here only, sparse scoring is pure text.
	denseResults, err := h.dense.Retrieve(ctx, query, k*oversampleFactor, filter)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(denseResults))
	for i, c := range denseResults {
		texts[i] = c.Text
	}
	sparseHits := newLexicalIndex(texts).score(query, k*oversampleFactor)

	fused := h.fuse(denseResults, sparseHits)

	if len(fused) > k {
		fused = fused[:k]
	}
	for i := range fused {
		fused[i].Rank = i
	}

	h.logger.Debug("hybrid_retrieval_complete",
		"dense_candidates", len(denseResults),
		"sparse_hits", len(sparseHits),
		"returned", len(fused),
	)
	return fused, nil
}

// fuse normalizes both score distributions independently, combines them with
// the configured weights and sorts descending. A chunk missing from one side
// contributes zero for that side, nothing more. The sort is stable over
// first-appearance order (dense results before sparse-only additions), which
// fixes tie-breaking.
func (h *HybridRetriever) fuse(
	denseResults []domain.RetrievedChunk,
	sparseHits []lexicalHit,
) []domain.RetrievedChunk {
	denseScores := make([]float64, len(denseResults))
	for i, c := range denseResults {
		denseScores[i] = c.Score
	}
	denseNorm := normalizeScores(denseScores)

	sparseScores := make([]float64, len(sparseHits))
	for i, hit := range sparseHits {
		sparseScores[i] = hit.score
	}
	sparseNorm := normalizeScores(sparseScores)

	acc := make(map[string]*hybridCandidate, len(denseResults))
	order := make([]string, 0, len(denseResults))

	for i, chunk := range denseResults {
		key := chunk.ChunkID
		if _, ok := acc[key]; !ok {
			order = append(order, key)
		}
		acc[key] = &hybridCandidate{
			chunk:      chunk,
			fusedScore: denseNorm[i] * h.denseWeight,
			denseScore: chunk.Score,
		}
	}

	for i, hit := range sparseHits {
		chunk := denseResults[hit.docIndex]
		key := chunk.ChunkID
		candidate, ok := acc[key]
		if !ok {
			candidate = &hybridCandidate{chunk: chunk}
			acc[key] = candidate
			order = append(order, key)
		}
		candidate.fusedScore += sparseNorm[i] * h.sparseWeight
		candidate.sparseScore = hit.score
	}

	out := make([]domain.RetrievedChunk, 0, len(order))
	for _, key := range order {
		candidate := acc[key]
		chunk := candidate.chunk
		chunk.Score = candidate.fusedScore
		chunk.DenseScore = candidate.denseScore
		chunk.SparseScore = candidate.sparseScore
		out = append(out, chunk)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
