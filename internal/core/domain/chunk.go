package domain

// Page is the text of one page of a source document.
type Page struct {
	// Number is 1-based.
	Number int

	// Text is the extracted page text. May be empty.
	Text string
}

// Chunk is a contiguous slice of one page's text plus its embedding vector.
// Chunks never span pages.
type Chunk struct {
	Text   string
	Page   int
	Vector []float32
}

// IndexSnapshot is the persisted form of a session's vector index.
// Chunks are kept in insertion order, which is the tie-break order for search.
type IndexSnapshot struct {
	// EmbeddingModel identifies the embedder that produced the vectors.
	EmbeddingModel string

	// Dimensions is the length of every chunk vector.
	Dimensions int

	Chunks []Chunk
}

// Passage is a retrieved chunk.
type Passage struct {
	Page  int     `json:"page"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
