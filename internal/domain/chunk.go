package domain

// Chunk is a bounded span of text extracted from one source document.
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
}
