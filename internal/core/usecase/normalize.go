package usecase

// normalizeScores rescales raw scores to [0,1] with min-max scaling. Dense and
// sparse scores live on incomparable raw scales, so each side is normalized
// independently before fusion. When all scores are identical (including the
// single-element case) the input values are returned as-is rather than
// dividing by zero. Empty input yields empty output.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	minScore := scores[0]
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	if maxScore == minScore {
		copy(out, scores)
		return out
	}

	spread := maxScore - minScore
	for i, s := range scores {
		out[i] = (s - minScore) / spread
	}
	return out
}
