package domain

import (
	"context"
	"time"
)

// Collections used by the profile flows.
const (
	VolunteersCollection   = "volunteers"
	NGOsCollection         = "ngos"
	HelpRequestsCollection = "help_requests"
)

// Account is an authenticated identity.
type Account struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Document is a schemaless profile record keyed by field name.
type Document map[string]any

// AccountStore is the identity and document persistence port.
type AccountStore interface {
	CreateAccount(ctx context.Context, email, password string) (Account, error)
	Authenticate(ctx context.Context, email, password string) (Account, error)
	// SendVerification issues a fresh verification token for the account and delivers it.
	SendVerification(ctx context.Context, account Account) error
	// VerifyEmail consumes a verification token and marks its account verified.
	VerifyEmail(ctx context.Context, token string) (Account, error)
	Account(ctx context.Context, uid string) (Account, error)

	// PutProfile writes doc under collection/id. With merge set, top-level keys of doc
	// are merged into the existing document instead of replacing it.
	PutProfile(ctx context.Context, collection, id string, doc Document, merge bool) error
	// GetProfile returns the document and whether it exists.
	GetProfile(ctx context.Context, collection, id string) (Document, bool, error)
	// QueryWhere returns documents whose top-level field equals value.
	QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error)
}

// VerificationSender delivers email verification links.
type VerificationSender interface {
	SendVerification(ctx context.Context, email, link string) error
}
