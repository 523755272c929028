package usecase

import (
	"math"
	"sort"
	"strings"
)

// BM25 parameters: k1 controls term-frequency saturation, b controls document
// length normalization.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// lexicalIndex is a query-scoped BM25 index over a small fixed candidate set,
// typically the chunks a prior dense pass already returned. It is rebuilt for
// every hybrid call and never shared across requests.
type lexicalIndex struct {
	termFreqs []map[string]int
	docFreq   map[string]int
	docLens   []int
	avgDocLen float64
}

// newLexicalIndex tokenizes each candidate text by lowercasing and splitting
// on whitespace, then records the term statistics BM25 scoring needs.
func newLexicalIndex(texts []string) *lexicalIndex {
	ix := &lexicalIndex{
		termFreqs: make([]map[string]int, 0, len(texts)),
		docFreq:   make(map[string]int, 64),
		docLens:   make([]int, 0, len(texts)),
	}

	totalLen := 0
	for _, text := range texts {
		tokens := tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			ix.docFreq[tok]++
		}
		ix.termFreqs = append(ix.termFreqs, tf)
		ix.docLens = append(ix.docLens, len(tokens))
		totalLen += len(tokens)
	}
	if len(texts) > 0 {
		ix.avgDocLen = float64(totalLen) / float64(len(texts))
	}
	return ix
}

// lexicalHit references a candidate document by its position in the candidate
// set handed to newLexicalIndex.
type lexicalHit struct {
	docIndex int
	score    float64
}

// score ranks the candidate set against the query. Only candidates with a
// positive score are returned, descending, at most topK, ties kept in original
// candidate order. An empty or never-built index yields no hits; sparse search
// contributing nothing is a normal outcome, not an error.
func (ix *lexicalIndex) score(query string, topK int) []lexicalHit {
	if ix == nil || len(ix.termFreqs) == 0 || topK <= 0 {
		return nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	numDocs := float64(len(ix.termFreqs))
	hits := make([]lexicalHit, 0, len(ix.termFreqs))
	for docIdx, tf := range ix.termFreqs {
		lenNorm := 1.0
		if ix.avgDocLen > 0 {
			lenNorm = 1.0 - bm25B + bm25B*float64(ix.docLens[docIdx])/ix.avgDocLen
		}

		total := 0.0
		for _, tok := range queryTokens {
			freq, ok := tf[tok]
			if !ok {
				continue
			}
			df := float64(ix.docFreq[tok])
			// Non-negative idf variant: terms present in every candidate
			// still contribute, just very little.
			idf := math.Log(1.0 + (numDocs-df+0.5)/(df+0.5))
			total += idf * float64(freq) * (bm25K1 + 1.0) / (float64(freq) + bm25K1*lenNorm)
		}
		if total > 0 {
			hits = append(hits, lexicalHit{docIndex: docIdx, score: total})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
