package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aidbridge/backend/adapters/auth"
	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/usecase"
	"github.com/aidbridge/backend/utils/log"
)

type Server struct {
	upgrader      websocket.Upgrader
	chat          *usecase.ChatService
	messageBroker domain.MessageBroker
	tokens        *auth.Issuer
	hub           *Hub
}

func NewServer(chat *usecase.ChatService, messageBroker domain.MessageBroker, tokens *auth.Issuer) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		chat:          chat,
		messageBroker: messageBroker,
		tokens:        tokens,
		hub:           NewHub(),
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// Run relays broker events to connected clients until ctx is done or the broker closes:
// help requests go to volunteers, verification notices to the verified user.
func (s *Server) Run(ctx context.Context) error {
	helpRequests, err := s.messageBroker.Subscribe(ctx, domain.HelpRequestTopic, "")
	if err != nil {
		return err
	}
	verifications, err := s.messageBroker.Subscribe(ctx, domain.AccountVerifiedTopic, "")
	if err != nil {
		return err
	}

	log.WithCtx(ctx).Info("🎧 WebSocket server listening to broker events")
	defer s.hub.CloseAll()

	for {
		select {
		case msg, ok := <-helpRequests:
			if !ok {
				log.WithCtx(ctx).Info("🔒 Help request feed closed")
				return nil
			}
			s.relayHelpRequest(ctx, msg)

		case msg, ok := <-verifications:
			if !ok {
				log.WithCtx(ctx).Info("🔒 Verification feed closed")
				return nil
			}
			s.relayVerification(ctx, msg)

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Broker listener stopped")
			return nil
		}
	}
}

func (s *Server) relayHelpRequest(ctx context.Context, msg domain.Message) {
	var request domain.HelpRequestMessage
	if err := json.Unmarshal(msg.Payload, &request); err != nil {
		log.WithCtx(ctx).Error("❌ Failed to unmarshal help request message", zap.Error(err))
		return
	}

	data, err := json.Marshal(Frame{Type: HelpRequestFrame, Timestamp: request.Timestamp, Data: request})
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	sent := s.hub.BroadcastToRole(domain.VolunteerRole, data)
	log.WithCtx(ctx).Info("📤 Broadcasted help request to volunteers",
		zap.String("help_request_id", request.ID),
		zap.String("severity", string(request.Severity)),
		zap.Int("recipients", sent))
}

func (s *Server) relayVerification(ctx context.Context, msg domain.Message) {
	var verified domain.AccountVerifiedMessage
	if err := json.Unmarshal(msg.Payload, &verified); err != nil {
		log.WithCtx(ctx).Error("❌ Failed to unmarshal verification message", zap.Error(err))
		return
	}

	data, err := json.Marshal(Frame{
		Type:      EmailVerifiedFrame,
		Timestamp: verified.Timestamp,
		Text:      "Your email address has been verified.",
		Data:      verified,
	})
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if err := s.hub.SendToUser(verified.UID, data); err != nil {
		log.WithCtx(ctx).Debug("Verified user not connected", zap.String("uid", verified.UID))
		return
	}
	log.WithCtx(ctx).Info("📤 Sent verification notice", zap.String("uid", verified.UID))
}

// serve answers the client's utterances until its read side ends.
func (s *Server) serve(client *Client) {
	ctx := client.Context()
	replies := make(chan domain.ReplyResult)

	go func() {
		defer close(replies)
		if err := s.chat.Execute(ctx, client.Run(), replies); err != nil {
			log.WithCtx(ctx).Error("chat session failed", zap.Error(err))
		}
	}()

	for reply := range replies {
		frame := Frame{Type: ChatReplyFrame, Text: reply.Text, Source: string(reply.Source)}
		if err := client.SendFrame(frame); err != nil {
			log.WithCtx(ctx).Debug("Failed to queue chat reply", zap.Error(err))
		}
	}
}
