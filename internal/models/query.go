package models

// Mode is the intent category assigned to a query by the classifier.
type Mode string

const (
	ModeCompetitor Mode = "competitor"
	ModeNews       Mode = "news"
	ModeBlended    Mode = "blended"
	ModeGreeting   Mode = "greeting"
	ModeIrrelevant Mode = "irrelevant"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeCompetitor, ModeNews, ModeBlended, ModeGreeting, ModeIrrelevant:
		return true
	}
	return false
}

// Terminal reports whether a query in this mode skips retrieval entirely.
func (m Mode) Terminal() bool {
	return m == ModeGreeting || m == ModeIrrelevant
}

// DefaultTopic is used when a search result carries no topic.
const DefaultTopic = "general"

// SearchResult is one scored hit returned by the retrieval service.
type SearchResult struct {
	URL   string  `json:"url"`
	Title string  `json:"title,omitempty"`
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// Target is a routed URL tagged with the topic of the search that found it.
type Target struct {
	URL   string `json:"url"`
	Topic string `json:"topic"`
}

// Origin records which fetch strategy produced a document.
type Origin string

const (
	OriginExtracted Origin = "extracted"
	OriginCrawled   Origin = "crawled"
)

// Document is fetched page content ready for relevance extraction.
type Document struct {
	URL    string   `json:"url"`
	Topic  string   `json:"topic"`
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
	Origin Origin   `json:"origin"`
}
