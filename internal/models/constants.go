package models

const (
	// PublishedLayout is the layout of ContentRecord.Published.
	PublishedLayout = "2006-01-02 15:04:05"

	DefaultDescription = "a custom file uploaded by the user."
	WebDescription     = "a web page scraped on request of the user."

	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n"

	// MaxEmbeddingTokens is the input limit of the cl100k_base embedding models.
	MaxEmbeddingTokens = 8191
	EmbeddingBuffer    = 50

	FileScheme = "file://"
)
