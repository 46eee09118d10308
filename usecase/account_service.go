package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

type VolunteerSignup struct {
	Name     string `json:"name" validate:"required"`
	Mobile   string `json:"mobile" validate:"required"`
	Location string `json:"location" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// VolunteerUpdate carries a partial profile update; nil fields are left untouched.
type VolunteerUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,min=1"`
	Mobile   *string `json:"mobile,omitempty" validate:"omitnil,min=1"`
	Location *string `json:"location,omitempty" validate:"omitnil,min=1"`
	City     *string `json:"city,omitempty" validate:"omitnil,min=1"`
}

type NGOSignup struct {
	OrgName     string `json:"orgName" validate:"required"`
	FounderName string `json:"founderName" validate:"required"`
	Mobile      string `json:"mobile" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// NGOUpdate carries a partial NGO profile update. Approval and verification flags are
// not writable through it.
type NGOUpdate struct {
	OrgName     *string `json:"orgName,omitempty" validate:"omitnil,min=1"`
	FounderName *string `json:"founderName,omitempty" validate:"omitnil,min=1"`
	Mobile      *string `json:"mobile,omitempty" validate:"omitnil,min=1"`
	Location    *string `json:"location,omitempty" validate:"omitnil,min=1"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// AccountService implements the volunteer and NGO signup, login and profile flows.
type AccountService struct {
	store    domain.AccountStore
	broker   domain.MessageBroker
	validate *validator.Validate
	now      func() time.Time
}

func NewAccountService(store domain.AccountStore, broker domain.MessageBroker) *AccountService {
	return &AccountService{
		store:    store,
		broker:   broker,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return nil
}

func (s *AccountService) RegisterVolunteer(ctx context.Context, email, password string, signup VolunteerSignup) (domain.Volunteer, error) {
	if err := s.check(signup); err != nil {
		return domain.Volunteer{}, err
	}

	account, err := s.store.CreateAccount(ctx, email, password)
	if err != nil {
		return domain.Volunteer{}, err
	}

	volunteer := domain.Volunteer{
		UID:       account.UID,
		Name:      signup.Name,
		Email:     account.Email,
		Mobile:    signup.Mobile,
		Location:  signup.Location,
		City:      signup.City,
		CreatedAt: s.now(),
	}
	if err := s.put(ctx, domain.VolunteersCollection, account.UID, volunteer, false); err != nil {
		return domain.Volunteer{}, err
	}
	s.sendVerification(ctx, account)

	log.WithCtx(ctx).Info("volunteer registered", zap.String("uid", account.UID))
	return volunteer, nil
}

// LoginVolunteer authenticates a volunteer. Accounts without a volunteer profile, such as
// NGOs, get ErrProfileNotFound.
func (s *AccountService) LoginVolunteer(ctx context.Context, email, password string) (domain.Account, domain.Volunteer, error) {
	account, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return domain.Account{}, domain.Volunteer{}, err
	}

	volunteer, err := s.Volunteer(ctx, account.UID)
	if err != nil {
		return domain.Account{}, domain.Volunteer{}, err
	}
	return account, volunteer, nil
}

func (s *AccountService) Volunteer(ctx context.Context, uid string) (domain.Volunteer, error) {
	var volunteer domain.Volunteer
	err := s.get(ctx, domain.VolunteersCollection, uid, &volunteer)
	return volunteer, err
}

func (s *AccountService) UpdateVolunteer(ctx context.Context, uid string, update VolunteerUpdate) (domain.Volunteer, error) {
	if err := s.check(update); err != nil {
		return domain.Volunteer{}, err
	}
	if _, err := s.Volunteer(ctx, uid); err != nil {
		return domain.Volunteer{}, err
	}
	if err := s.put(ctx, domain.VolunteersCollection, uid, update, true); err != nil {
		return domain.Volunteer{}, err
	}
	return s.Volunteer(ctx, uid)
}

func (s *AccountService) RegisterNGO(ctx context.Context, email, password string, signup NGOSignup) (domain.NGO, error) {
	if err := s.check(signup); err != nil {
		return domain.NGO{}, err
	}

	account, err := s.store.CreateAccount(ctx, email, password)
	if err != nil {
		return domain.NGO{}, err
	}

	ngo := domain.NGO{
		UID:         account.UID,
		OrgName:     signup.OrgName,
		FounderName: signup.FounderName,
		Email:       account.Email,
		Mobile:      signup.Mobile,
		Location:    signup.Location,
		Description: signup.Description,
		ImageURL:    signup.ImageURL,
		CreatedAt:   s.now(),
	}
	if err := s.put(ctx, domain.NGOsCollection, account.UID, ngo, false); err != nil {
		return domain.NGO{}, err
	}
	s.sendVerification(ctx, account)

	log.WithCtx(ctx).Info("ngo registered", zap.String("uid", account.UID), zap.String("org", ngo.OrgName))
	return ngo, nil
}

// LoginNGO authenticates an NGO and only admits approved organisations.
func (s *AccountService) LoginNGO(ctx context.Context, email, password string) (domain.Account, domain.NGO, error) {
	account, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return domain.Account{}, domain.NGO{}, err
	}

	ngo, err := s.NGO(ctx, account.UID)
	if err != nil {
		return domain.Account{}, domain.NGO{}, err
	}
	if !ngo.IsApproved {
		return domain.Account{}, domain.NGO{}, domain.ErrPendingApproval
	}
	return account, ngo, nil
}

func (s *AccountService) NGO(ctx context.Context, uid string) (domain.NGO, error) {
	var ngo domain.NGO
	err := s.get(ctx, domain.NGOsCollection, uid, &ngo)
	return ngo, err
}

func (s *AccountService) UpdateNGOProfile(ctx context.Context, uid string, update NGOUpdate) (domain.NGO, error) {
	if err := s.check(update); err != nil {
		return domain.NGO{}, err
	}
	if _, err := s.NGO(ctx, uid); err != nil {
		return domain.NGO{}, err
	}
	if err := s.put(ctx, domain.NGOsCollection, uid, update, true); err != nil {
		return domain.NGO{}, err
	}
	return s.NGO(ctx, uid)
}

func (s *AccountService) ApprovedNGOs(ctx context.Context) ([]domain.NGO, error) {
	docs, err := s.store.QueryWhere(ctx, domain.NGOsCollection, "isApproved", true)
	if err != nil {
		return nil, fmt.Errorf("query approved ngos: %w", err)
	}

	ngos := make([]domain.NGO, 0, len(docs))
	for _, doc := range docs {
		var ngo domain.NGO
		if err := fromDocument(doc, &ngo); err != nil {
			return nil, err
		}
		ngos = append(ngos, ngo)
	}
	return ngos, nil
}

func (s *AccountService) ApproveNGO(ctx context.Context, uid string) (domain.NGO, error) {
	if _, err := s.NGO(ctx, uid); err != nil {
		return domain.NGO{}, err
	}
	err := s.store.PutProfile(ctx, domain.NGOsCollection, uid, domain.Document{"isApproved": true}, true)
	if err != nil {
		return domain.NGO{}, err
	}
	log.WithCtx(ctx).Info("ngo approved", zap.String("uid", uid))
	return s.NGO(ctx, uid)
}

// VerifyEmail consumes a verification token and flags the matching profile as verified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (domain.Account, error) {
	account, err := s.store.VerifyEmail(ctx, token)
	if err != nil {
		return domain.Account{}, err
	}

	for _, collection := range []string{domain.VolunteersCollection, domain.NGOsCollection} {
		_, found, err := s.store.GetProfile(ctx, collection, account.UID)
		if err != nil {
			return domain.Account{}, err
		}
		if !found {
			continue
		}
		err = s.store.PutProfile(ctx, collection, account.UID, domain.Document{"isVerified": true}, true)
		if err != nil {
			return domain.Account{}, err
		}
	}

	s.announceVerified(ctx, account)
	return account, nil
}

// announceVerified lets live sessions of the account know; failures are logged only.
func (s *AccountService) announceVerified(ctx context.Context, account domain.Account) {
	logger := log.WithCtx(ctx).With(zap.String("uid", account.UID))
	payload, err := json.Marshal(domain.AccountVerifiedMessage{UID: account.UID, Email: account.Email, Timestamp: s.now()})
	if err != nil {
		logger.Error("❌ Failed to marshal verification message", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.AccountVerifiedTopic, "", payload); err != nil {
		logger.Error("❌ Failed to publish verification", zap.Error(err))
	}
}

// sendVerification runs after the profile is stored. A failed send leaves a complete
// account; the user can ask again through ResendVerification.
func (s *AccountService) sendVerification(ctx context.Context, account domain.Account) {
	if err := s.store.SendVerification(ctx, account); err != nil {
		log.WithCtx(ctx).Warn("verification email not sent", zap.String("uid", account.UID), zap.Error(err))
	}
}

func (s *AccountService) ResendVerification(ctx context.Context, uid string) error {
	account, err := s.store.Account(ctx, uid)
	if err != nil {
		return err
	}
	return s.store.SendVerification(ctx, account)
}

func (s *AccountService) put(ctx context.Context, collection, id string, v any, merge bool) error {
	doc, err := toDocument(v)
	if err != nil {
		return err
	}
	if err := s.store.PutProfile(ctx, collection, id, doc, merge); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *AccountService) get(ctx context.Context, collection, id string, out any) error {
	doc, found, err := s.store.GetProfile(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if !found {
		return domain.ErrProfileNotFound
	}
	return fromDocument(doc, out)
}

func toDocument(v any) (domain.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := domain.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

func fromDocument(doc domain.Document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
