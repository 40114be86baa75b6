package pipeline

import (
	"context"
	"log/slog"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/logstore"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

// MaxImagesPerDocument caps image blocks contributed by one document.
const MaxImagesPerDocument = 3

// Formatter renders the run into the output envelope and logs the response.
type Formatter struct {
	recorder *logstore.Recorder
	log      *slog.Logger
}

func NewFormatter(recorder *logstore.Recorder, log *slog.Logger) *Formatter {
	return &Formatter{recorder: recorder, log: logger.OrDiscard(log)}
}

// Format builds the envelope for qc. A faulted run gets FailureMessage, a
// terminal classification gets its reply, and anything else the answer,
// with image blocks when documents carried images.
func (f *Formatter) Format(ctx context.Context, qc *models.QueryContext) *models.Envelope {
	env := buildEnvelope(qc)

	f.recorder.Record(ctx, models.Interaction{
		RunID:           qc.RunID,
		Kind:            models.KindResponse,
		OriginalQuery:   qc.OriginalQuery,
		NormalizedQuery: qc.NormalizedQuery,
		Mode:            qc.Mode,
		Response:        responseText(env),
		Strategy:        qc.Strategy,
		Documents:       len(qc.Documents),
		Errored:         qc.Errored,
	})
	return env
}

func buildEnvelope(qc *models.QueryContext) *models.Envelope {
	meta := map[string]any{
		"run_id":           qc.RunID,
		"mode":             string(qc.Mode),
		"normalized_query": qc.NormalizedQuery,
		"short_circuit":    qc.Terminal && !qc.Errored,
		"errored":          qc.Errored,
	}

	switch {
	case qc.Errored:
		return &models.Envelope{Type: models.EnvelopeText, Content: FailureMessage, Meta: meta}
	case qc.Terminal:
		return &models.Envelope{Type: models.EnvelopeText, Content: qc.NormalizedQuery, Meta: meta}
	}

	answer := qc.Answer
	if answer == "" {
		answer = NoInfoAnswer
	}
	meta["strategy"] = qc.Strategy
	meta["documents"] = len(qc.Documents)
	topics := qc.Buckets.Topics()
	if topics == nil {
		topics = []string{}
	}
	meta["topics"] = topics

	images := imageBlocks(qc.Documents)
	if answer == NoInfoAnswer || len(images) == 0 {
		return &models.Envelope{Type: models.EnvelopeText, Content: answer, Meta: meta}
	}

	blocks := make([]models.Block, 0, len(images)+1)
	blocks = append(blocks, models.Block{Type: models.BlockParagraph, Text: answer})
	blocks = append(blocks, images...)
	return &models.Envelope{Type: models.EnvelopeMixed, Content: blocks, Meta: meta}
}

func imageBlocks(docs []models.Document) []models.Block {
	var blocks []models.Block
	seen := map[string]struct{}{}
	for _, doc := range docs {
		taken := 0
		for _, src := range doc.Images {
			if taken == MaxImagesPerDocument {
				break
			}
			if src == "" {
				continue
			}
			if _, dup := seen[src]; dup {
				continue
			}
			seen[src] = struct{}{}
			blocks = append(blocks, models.Block{Type: models.BlockImage, Content: src, Source: doc.URL})
			taken++
		}
	}
	return blocks
}

func responseText(env *models.Envelope) string {
	switch c := env.Content.(type) {
	case string:
		return c
	case []models.Block:
		if len(c) > 0 {
			return c[0].Text
		}
	}
	return ""
}

// failureEnvelope is used when formatting itself faulted.
func failureEnvelope(qc *models.QueryContext) *models.Envelope {
	return &models.Envelope{
		Type:    models.EnvelopeText,
		Content: FailureMessage,
		Meta: map[string]any{
			"run_id":        qc.RunID,
			"mode":          string(qc.Mode),
			"short_circuit": false,
			"errored":       true,
		},
	}
}
