package domain

import "fmt"

// Chunk is the atomic unit of retrieval: a fixed-size slice of a transcript.
// Chunks are immutable once created; re-indexing a video replaces its chunks
// by id rather than mutating them.
type Chunk struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}

// ChunkID builds the stable chunk identifier for a video chunk.
func ChunkID(videoID string, index int) string {
	return fmt.Sprintf("%s_%d", videoID, index)
}

// TranscriptSegment is one timed caption line as returned by the transcript
// source.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the raw fetched transcript of a video.
type Transcript struct {
	VideoID  string              `json:"video_id"`
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Segments []TranscriptSegment `json:"segments"`
}
