package domain

// SearchFilter narrows retrieval to one indexed video and/or a logical
// namespace inside the vector store.
type SearchFilter struct {
	VideoID   string
	Namespace string
}

// RetrievedChunk is a chunk annotated with per-query scores. Score carries the
// semantics of the stage that produced it: cosine similarity after dense
// search, BM25 magnitude after sparse search, or the fused hybrid score.
// DenseScore and SparseScore keep the raw per-side scores after fusion so a
// hybrid ranking stays debuggable.
type RetrievedChunk struct {
	ChunkID     string  `json:"chunk_id"`
	VideoID     string  `json:"video_id"`
	ChunkIndex  int     `json:"chunk_index"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	DenseScore  float64 `json:"dense_score"`
	SparseScore float64 `json:"sparse_score"`
	Rank        int     `json:"rank"`
}

// Answer is the full QA result for one question.
type Answer struct {
	Question        string           `json:"question"`
	Text            string           `json:"answer"`
	Citations       []int            `json:"citations"`
	Sources         []RetrievedChunk `json:"sources"`
	NumSources      int              `json:"num_sources"`
	RetrievedChunks int              `json:"retrieved_chunks"`
	RetrieverType   string           `json:"retriever_type"`
	DurationMS      int64            `json:"duration_ms"`
}
