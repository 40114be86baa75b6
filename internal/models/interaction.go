package models

import "time"

// InteractionKind distinguishes the two records written per pipeline run.
type InteractionKind string

const (
	KindQuery    InteractionKind = "query_log"
	KindResponse InteractionKind = "response_log"
)

// Interaction is an append-only log record stored in the log store.
type Interaction struct {
	ID              string          `json:"id"`
	RunID           string          `json:"run_id"`
	Kind            InteractionKind `json:"kind"`
	OriginalQuery   string          `json:"original_query,omitempty"`
	NormalizedQuery string          `json:"normalized_query,omitempty"`
	Mode            Mode            `json:"mode,omitempty"`
	Response        string          `json:"response,omitempty"`
	Strategy        string          `json:"strategy,omitempty"`
	Documents       int             `json:"documents,omitempty"`
	Errored         bool            `json:"errored,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}
