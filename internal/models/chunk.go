package models

// TextChunk is a bounded slice of a larger text. Start and End are character
// offsets into the source text.
type TextChunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// ChunkEmbedding pairs a chunk of a record with its vector.
type ChunkEmbedding struct {
	ID         string
	DocumentID string
	ChunkID    int
	Title      string
	SourceURL  string
	Content    string
	Embedding  []float32
}
