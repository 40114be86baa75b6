package pipeline

import "github.com/DeafMist/intel-radar/backend/internal/models"

const (
	HighScore = 0.7
	MidScore  = 0.5
)

const (
	StrategyExtract = "extract"
	StrategyCrawl   = "crawl"
	StrategyNone    = "none"
)

// Routes are search hits split by score.
type Routes struct {
	High []models.Target
	Mid  []models.Target
}

// Route puts scores above HighScore in High and scores in [MidScore, HighScore]
// in Mid; everything else is dropped. A URL is routed once, by its first hit.
func Route(results []models.SearchResult) Routes {
	var routes Routes
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		topic := r.Topic
		if topic == "" {
			topic = models.DefaultTopic
		}
		target := models.Target{URL: r.URL, Topic: topic}

		switch {
		case r.Score > HighScore:
			routes.High = append(routes.High, target)
		case r.Score >= MidScore:
			routes.Mid = append(routes.Mid, target)
		default:
			continue
		}
		seen[r.URL] = struct{}{}
	}
	return routes
}

// Strategy names the fetch stage the routes lead to.
func (r Routes) Strategy() string {
	switch {
	case len(r.High) > 0:
		return StrategyExtract
	case len(r.Mid) > 0:
		return StrategyCrawl
	default:
		return StrategyNone
	}
}
