package models

// EnvelopeType tells clients how to read Envelope.Content.
type EnvelopeType string

const (
	EnvelopeText  EnvelopeType = "text"
	EnvelopeMixed EnvelopeType = "mixed"
)

// Block is one renderable piece of a mixed envelope.
type Block struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content string `json:"content,omitempty"`
	Source  string `json:"source,omitempty"`
}

const (
	BlockParagraph = "paragraph"
	BlockImage     = "image"
)

// Envelope is the output contract of the pipeline. Content is a string for
// EnvelopeText and a []Block for EnvelopeMixed.
type Envelope struct {
	Type    EnvelopeType   `json:"type"`
	Content any            `json:"content"`
	Meta    map[string]any `json:"meta"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps an envelope in the status shape returned to callers.
type Response struct {
	Status  string    `json:"status"`
	Data    *Envelope `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Success builds a success response around env.
func Success(env *Envelope) Response {
	return Response{Status: StatusSuccess, Data: env}
}

// Failure builds an error response with message.
func Failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}
