package pipeline

import (
	"fmt"
	"strings"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

const (
	GreetingReply   = "Hello! I am your Competitive Intelligence Assistant. How can I help you today?"
	IrrelevantReply = "Only competitive intelligence & industry news supported."
	// NoInfoAnswer is the answer when nothing relevant survived aggregation.
	NoInfoAnswer = "No relevant information found."
	// FailureMessage is shown when a stage faulted.
	FailureMessage = "Something went wrong while preparing your digest. Please try again."
	// NoRelevantInfo is what the summarizer model answers for an irrelevant document.
	NoRelevantInfo = "NO RELEVANT INFO"
)

const classifySystemPrompt = `You are a competitive intelligence and market analyst.
Classify the user's latest message into exactly one mode:
- competitor: questions about specific companies, products, pricing or positioning
- news: recent industry or market news
- blended: needs both competitor detail and recent news
- greeting: a greeting or small talk
- irrelevant: anything not about industry, competitors or market news
For competitor, news and blended rewrite the message as a clear standalone search query.
For greeting write a short friendly greeting; for irrelevant a short polite refusal.
Use the earlier turns only to resolve references. Do not invent facts.
Answer with JSON only: {"mode": "<mode>", "normalized_query": "<text>"}`

const summarizeSystemPrompt = `You extract information for a research digest.
From the document below, copy or tightly paraphrase only the passages that help answer the query.
Use only the document. Do not add outside knowledge, opinions or apologies.
If nothing in the document is relevant, answer exactly: ` + NoRelevantInfo

const synthesizeSystemPrompt = `You write the final answer of a competitive intelligence digest.
Combine the excerpts below, grouped by topic, into one coherent answer to the query.
Use only the excerpts. Keep source URLs next to the facts they support.
Do not apologize and do not add outside knowledge.`

func summarizeUserPrompt(query, text string) string {
	return fmt.Sprintf("Query: %s\n\nDocument:\n%s", query, text)
}

// topicBlocks renders every topic as
//
//	Topic: <topic>
//	- <excerpt> (URL: <url>)
//
// in first-seen topic order.
func topicBlocks(b *models.TopicBuckets) string {
	var sb strings.Builder
	for i, topic := range b.Topics() {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Topic: %s", topic)
		for _, e := range b.Excerpts(topic) {
			fmt.Fprintf(&sb, "\n- %s (URL: %s)", e.Text, e.URL)
		}
	}
	return sb.String()
}

func synthesizeUserPrompt(query string, b *models.TopicBuckets) string {
	return fmt.Sprintf("Query: %s\n\n%s", query, topicBlocks(b))
}
