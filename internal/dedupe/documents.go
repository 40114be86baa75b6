package dedupe

import (
	"strings"

	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/processing"
)

const (
	DefaultThreshold = 0.9
	DefaultLimit     = 10
)

// Deduplicator drops repeated and near-identical documents before they are
// summarized. The zero value uses DefaultThreshold and DefaultLimit.
type Deduplicator struct {
	// Threshold is the similarity ratio above which a document counts as a
	// copy of one already accepted.
	Threshold float64
	// Limit caps how many input documents are considered.
	Limit int
}

// Filter returns the unique documents among the first Limit inputs, in input
// order. A document is dropped when its URL was already accepted, when its URL
// or text is empty, or when its text is more than Threshold similar to an
// accepted document. Inputs beyond Limit are discarded.
func (d Deduplicator) Filter(docs []models.Document) []models.Document {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	limit := d.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}

	seen := make(map[string]struct{}, len(docs))
	kept := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		url := strings.TrimSpace(doc.URL)
		if url == "" || strings.TrimSpace(doc.Text) == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		if nearCopy(kept, doc.Text, threshold) {
			continue
		}
		seen[url] = struct{}{}
		kept = append(kept, doc)
	}
	return kept
}

func nearCopy(kept []models.Document, text string, threshold float64) bool {
	for _, prior := range kept {
		if processing.SimilarityExceeds(prior.Text, text, threshold) {
			return true
		}
	}
	return false
}
