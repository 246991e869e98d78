package domain

import "strings"

// UnknownSource is the placeholder used when an incoming article carries no source name.
const UnknownSource = "Unknown"

// KeyPrefix namespaces every database key written by this service.
const KeyPrefix = "newslens:"

// RawArticle is an ingestion record as it arrives from the outside
// (NewsAPI payloads, manual uploads). Every field is optional.
type RawArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}

// Text derives the embedding text: title and description joined and trimmed.
// An empty result means the record carries nothing worth indexing.
func (r RawArticle) Text() string {
	return strings.TrimSpace(r.Title + " " + r.Description)
}

// Article is a stored article: display metadata plus its embedding vector.
// IDs are assigned sequentially by the index and never reused.
type Article struct {
	ID     int
	Title  string
	URL    string
	Source string
	Text   string
	Vector []float32 // not exposed to clients
}

// NewArticle builds an Article from a raw record, applying metadata defaults.
// The vector is attached later, after batch embedding.
func NewArticle(raw RawArticle) Article {
	source := raw.Source
	if source == "" {
		source = UnknownSource
	}
	return Article{
		Title:  raw.Title,
		URL:    raw.URL,
		Source: source,
		Text:   raw.Text(),
	}
}

// Recommendation is a single similarity hit returned to callers.
// Score is cosine similarity rounded to 3 decimal places.
type Recommendation struct {
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}
