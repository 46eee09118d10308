package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

// SafetyTips are returned with every accepted help request.
var SafetyTips = []string{
	"Stay calm and keep a safe distance from the animal",
	"Do not attempt to move severely injured animals yourself",
	"Take photos from a safe distance for our volunteers",
	"Provide fresh water if the animal appears dehydrated",
	"Contact local authorities if the situation seems dangerous",
}

type HelpRequestInput struct {
	UserName string          `json:"userName" validate:"required"`
	Location string          `json:"location" validate:"required"`
	Landmark string          `json:"landmark" validate:"required"`
	Severity domain.Severity `json:"severity" validate:"required,oneof=low medium high"`
}

// HelpRequestService records help requests and announces them to volunteers.
type HelpRequestService struct {
	store    domain.AccountStore
	broker   domain.MessageBroker
	validate *validator.Validate
	now      func() time.Time
}

func NewHelpRequestService(store domain.AccountStore, broker domain.MessageBroker) *HelpRequestService {
	return &HelpRequestService{
		store:    store,
		broker:   broker,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores the request and publishes it on HelpRequestTopic. A publish failure is
// logged only; the request is already persisted.
func (s *HelpRequestService) Submit(ctx context.Context, input HelpRequestInput) (domain.HelpRequest, error) {
	if err := s.validate.Struct(input); err != nil {
		return domain.HelpRequest{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	req := domain.HelpRequest{
		ID:        uuid.NewString(),
		UserName:  input.UserName,
		Location:  input.Location,
		Landmark:  input.Landmark,
		Severity:  input.Severity,
		CreatedAt: s.now(),
	}

	doc, err := toDocument(req)
	if err != nil {
		return domain.HelpRequest{}, err
	}
	if err := s.store.PutProfile(ctx, domain.HelpRequestsCollection, req.ID, doc, false); err != nil {
		return domain.HelpRequest{}, fmt.Errorf("store help request: %w", err)
	}

	logger := log.WithCtx(ctx).With(zap.String("help_request_id", req.ID), zap.String("severity", string(req.Severity)))
	payload, err := json.Marshal(domain.HelpRequestMessage{
		ID:        req.ID,
		UserName:  req.UserName,
		Location:  req.Location,
		Landmark:  req.Landmark,
		Severity:  req.Severity,
		Timestamp: req.CreatedAt,
	})
	if err != nil {
		logger.Error("❌ Failed to marshal help request message", zap.Error(err))
		return req, nil
	}
	if err := s.broker.Publish(ctx, domain.HelpRequestTopic, "", payload); err != nil {
		logger.Error("❌ Failed to publish help request", zap.Error(err))
		return req, nil
	}

	logger.Info("🆘 Help request submitted")
	return req, nil
}

// BySeverity lists stored help requests of the given severity, oldest first.
func (s *HelpRequestService) BySeverity(ctx context.Context, severity domain.Severity) ([]domain.HelpRequest, error) {
	if err := s.validate.Var(string(severity), "oneof=low medium high"); err != nil {
		return nil, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidInput, severity)
	}

	docs, err := s.store.QueryWhere(ctx, domain.HelpRequestsCollection, "severity", string(severity))
	if err != nil {
		return nil, fmt.Errorf("query help requests: %w", err)
	}

	requests := make([]domain.HelpRequest, 0, len(docs))
	for _, doc := range docs {
		var req domain.HelpRequest
		if err := fromDocument(doc, &req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}
