package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

// Citation markers are matched in their exact documented form: capital C,
// single space, decimal index. Near-miss formats ("[chunk 3]", "[Chunk3]")
// are deliberately not extracted.
var (
	citationPattern      = regexp.MustCompile(`\[Chunk (\d+)\]`)
	citationStripPattern = regexp.MustCompile(`\s*\[Chunk \d+\]`)
)

// ExtractCitations returns every cited chunk index in left-to-right order.
// Duplicates are preserved: the result is a sequence, not a set.
func ExtractCitations(text string) []int {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	cited := make([]int, 0, len(matches))
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cited = append(cited, idx)
	}
	return cited
}

// CitationLinks couples the raw citation sequence of an answer with the
// sources those citations resolve to. ValidCount counts resolved distinct
// citations and is reported separately from the raw citation count: a dangling
// citation stays visible in Citations but produces no source.
type CitationLinks struct {
	Citations  []int
	Sources    []domain.RetrievedChunk
	ValidCount int
}

// LinkSources maps the citations in answer onto the exact result list that
// supplied the generation context. Cited indexes are positions in that list;
// each distinct resolvable index contributes one source, in order of first
// appearance.
func LinkSources(answer string, results []domain.RetrievedChunk) CitationLinks {
	cited := ExtractCitations(answer)

	seen := make(map[int]struct{}, len(cited))
	sources := make([]domain.RetrievedChunk, 0, len(cited))
	for _, idx := range cited {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		if idx >= 0 && idx < len(results) {
			sources = append(sources, results[idx])
		}
	}

	return CitationLinks{
		Citations:  cited,
		Sources:    sources,
		ValidCount: len(sources),
	}
}

// RemoveCitations strips all citation markers and collapses any resulting
// whitespace runs to single spaces, for a clean display variant.
func RemoveCitations(text string) string {
	clean := citationStripPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(clean), " ")
}
