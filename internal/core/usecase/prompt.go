package usecase

import (
	"fmt"
	"strings"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

const qaPrompt = `You are an AI assistant helping users understand YouTube video content.

Your task is to answer questions based ONLY on the provided context from video transcripts.

Guidelines:
1. Answer ONLY using information from the provided context
2. If the context doesn't contain enough information, say "I don't have enough information in this video to answer that question"
3. Be specific and accurate
4. Keep answers concise but complete
5. Use the same language and terminology as the video
6. Do not make up or infer information not present in the context

Context from video transcript:
%s

User question: %s

Answer:`

const qaPromptWithCitations = `You are an AI assistant helping users understand YouTube video content.

Your task is to answer questions based ONLY on the provided context from video transcripts, and include citations.

Guidelines:
1. Answer ONLY using information from the provided context
2. After each fact or claim, add a citation in brackets like [Chunk 0], [Chunk 1], etc.
3. If the context doesn't contain enough information, say so clearly
4. Be specific and accurate
5. Multiple chunks can support the same point - cite all relevant chunks
6. Keep answers concise but complete

Context (with chunk IDs):
%s

User question: %s

Answer (with citations):`

// formatContext concatenates the retrieved chunk texts. With markers enabled,
// each chunk is labeled by its position in the result list; citations in the
// generated answer refer back to these positions.
func formatContext(chunks []domain.RetrievedChunk, withMarkers bool) string {
	if len(chunks) == 0 {
		return "No context available."
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if withMarkers {
			parts = append(parts, fmt.Sprintf("[Chunk %d]\n%s", i, chunk.Text))
		} else {
			parts = append(parts, chunk.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func buildQAPrompt(question string, chunks []domain.RetrievedChunk, includeCitations bool) string {
	context := formatContext(chunks, includeCitations)
	if includeCitations {
		return fmt.Sprintf(qaPromptWithCitations, context, question)
	}
	return fmt.Sprintf(qaPrompt, context, question)
}

func buildRewritePrompt(query string) string {
	return fmt.Sprintf(queryRewritePrompt, query)
}

// estimateTokens is the rough prompt-size guard used before any LLM call:
// one token per four characters.
func estimateTokens(text string) int {
	return len(text) / 4
}
