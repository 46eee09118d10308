package domain

import "context"

// Llm abstracts the remote text generation backend.
type Llm interface {
	// Generate takes a complete prompt and returns the model's reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// CredentialProvider reports the generation API key, if one is configured.
type CredentialProvider interface {
	GenerationAPIKey() (string, bool)
}

type ReplySource string

const (
	RemoteSource   ReplySource = "remote"
	FallbackSource ReplySource = "fallback"
)

// ReplyResult is the assistant's answer to a single utterance.
type ReplyResult struct {
	Text   string      `json:"text"`
	Source ReplySource `json:"source"`
}

// FailureClass categorises a failed generation call.
type FailureClass int

const (
	FailureOther FailureClass = iota
	FailureRateLimited
	FailureUnconfigured
)

func (c FailureClass) String() string {
	switch c {
	case FailureRateLimited:
		return "rate_limited"
	case FailureUnconfigured:
		return "unconfigured"
	default:
		return "other"
	}
}
