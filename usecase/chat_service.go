package usecase

import (
	"context"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

// ChatService drives a live chat session: every utterance read from input is answered on output.
type ChatService struct {
	responder *Responder
}

func NewChatService(responder *Responder) *ChatService {
	return &ChatService{responder: responder}
}

// Reply answers a single utterance.
func (s *ChatService) Reply(ctx context.Context, utterance string) domain.ReplyResult {
	return s.responder.Respond(ctx, utterance)
}

// Execute serves utterances until ctx is done or input is closed.
func (s *ChatService) Execute(ctx context.Context, input <-chan string, output chan<- domain.ReplyResult) error {
	for {
		select {
		case msg, ok := <-input:
			if !ok {
				log.WithCtx(ctx).Debug("chat input closed")
				return nil
			}
			reply := s.responder.Respond(ctx, msg)
			select {
			case output <- reply:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			log.WithCtx(ctx).Debug("chat session ended")
			return nil
		}
	}
}
