package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/aidbridge/backend/utils/log"
)

// LogSender "delivers" verification links by logging them. It stands in for an SMTP relay
// in development deployments.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendVerification(ctx context.Context, email, link string) error {
	log.WithCtx(ctx).Info("📧 Verification link issued", zap.String("email", email), zap.String("link", link))
	return nil
}
