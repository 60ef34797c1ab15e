package models

// MaxChunkTextLength bounds the passage text handed to prompt building
const MaxChunkTextLength = 1500

// ChunkMatch is a document chunk scored against a query embedding.
// Chunks are written by the ingestion pipeline and only read here.
type ChunkMatch struct {
	ID         int64    `json:"id" db:"id"`
	DocID      string   `json:"doc_id" db:"doc_id"`
	Order      int      `json:"order" db:"order"`
	Text       string   `json:"text" db:"text"`
	Headings   []string `json:"headings" db:"headings"`
	SourcePath string   `json:"source_path" db:"source_path"`
	Score      float64  `json:"score" db:"score"`
}

// TruncateText cuts s to at most max characters. The cut is not word-aware.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
