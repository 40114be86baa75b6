package models

// QueryContext is the per-run state threaded through the pipeline stages.
// It is created when a query arrives and dropped once the envelope is built.
type QueryContext struct {
	RunID           string
	OriginalQuery   string
	NormalizedQuery string
	Mode            Mode
	Terminal        bool
	Errored         bool

	Results  []SearchResult
	High     []Target
	Mid      []Target
	Strategy string

	Documents []Document
	Buckets   *TopicBuckets
	Answer    string
	Envelope  *Envelope
}
