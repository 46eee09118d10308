package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

const (
	assistantPreamble = "You are a helpful AI assistant for AidBridge, a platform that connects people who care with " +
		"animals and communities that need immediate assistance. You help users with questions about animal rescue, " +
		"volunteering, NGO partnerships, and general support. Be friendly, informative, and encouraging."

	unconfiguredReply = "API key not configured. Please set GEMINI_API_KEY in the environment " +
		"or create a .env file in the service root with: GEMINI_API_KEY=your_api_key_here"

	apologyReply = "Sorry, I encountered an error. Please try again later."
)

// Responder answers single utterances, preferring the remote model and falling back to
// canned replies when it is unavailable. It holds no per-conversation state.
type Responder struct {
	llm   domain.Llm
	creds domain.CredentialProvider
}

func NewResponder(llm domain.Llm, creds domain.CredentialProvider) *Responder {
	return &Responder{llm: llm, creds: creds}
}

// Respond never fails: every error path yields a fallback reply.
func (r *Responder) Respond(ctx context.Context, utterance string) (result domain.ReplyResult) {
	logger := log.WithCtx(ctx)

	if !r.configured() {
		logger.Warn("generation API key missing, skipping remote call")
		return domain.ReplyResult{Text: unconfiguredReply, Source: domain.FallbackSource}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("generation backend panicked", zap.Any("panic", rec))
			result = domain.ReplyResult{Text: apologyReply, Source: domain.FallbackSource}
		}
	}()

	text, err := r.llm.Generate(ctx, BuildPrompt(utterance))
	if err == nil {
		return domain.ReplyResult{Text: text, Source: domain.RemoteSource}
	}

	class := ClassifyFailure(err)
	logger.Warn("generation failed, using fallback", zap.Error(err), zap.Stringer("class", class))
	if class == domain.FailureRateLimited {
		return domain.ReplyResult{Text: FallbackReply(utterance), Source: domain.FallbackSource}
	}
	return domain.ReplyResult{Text: apologyReply, Source: domain.FallbackSource}
}

func (r *Responder) configured() bool {
	if r.llm == nil || r.creds == nil {
		return false
	}
	key, ok := r.creds.GenerationAPIKey()
	return ok && strings.TrimSpace(key) != ""
}

// BuildPrompt prefixes the raw utterance with the assistant preamble.
func BuildPrompt(utterance string) string {
	return fmt.Sprintf("%s\n\nUser message: %s", assistantPreamble, utterance)
}

// ClassifyFailure maps a generation error onto a FailureClass.
func ClassifyFailure(err error) domain.FailureClass {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return domain.FailureRateLimited
	case errors.Is(err, domain.ErrUnconfigured):
		return domain.FailureUnconfigured
	case strings.Contains(err.Error(), "429"):
		return domain.FailureRateLimited
	default:
		return domain.FailureOther
	}
}
