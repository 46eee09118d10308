package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aidbridge/backend/domain"
)

// memStore is an in-memory domain.AccountStore.
type memStore struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account // by uid
	passwords map[string]string         // by uid
	tokens    map[string]string         // token -> uid
	lastToken map[string]string         // uid -> token
	docs      map[string]map[string]domain.Document
	order     map[string][]string
	sendErr   error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  map[string]domain.Account{},
		passwords: map[string]string{},
		tokens:    map[string]string{},
		lastToken: map[string]string{},
		docs:      map[string]map[string]domain.Document{},
		order:     map[string][]string{},
	}
}

func (m *memStore) CreateAccount(_ context.Context, email, password string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return domain.Account{}, domain.ErrInvalidEmail
	}
	if len(password) < 6 {
		return domain.Account{}, domain.ErrWeakPassword
	}
	for _, a := range m.accounts {
		if a.Email == email {
			return domain.Account{}, domain.ErrEmailInUse
		}
	}
	a := domain.Account{UID: uuid.NewString(), Email: email, CreatedAt: time.Now()}
	m.accounts[a.UID] = a
	m.passwords[a.UID] = password
	return a, nil
}

func (m *memStore) Authenticate(_ context.Context, email, password string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for uid, a := range m.accounts {
		if a.Email == email && m.passwords[uid] == password {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrInvalidCredentials
}

func (m *memStore) SendVerification(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	if _, ok := m.accounts[account.UID]; !ok {
		return domain.ErrNotFound
	}
	token := uuid.NewString()
	m.tokens[token] = account.UID
	m.lastToken[account.UID] = token
	return nil
}

func (m *memStore) VerifyEmail(_ context.Context, token string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.tokens[token]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	delete(m.tokens, token)
	a := m.accounts[uid]
	a.EmailVerified = true
	m.accounts[uid] = a
	return a, nil
}

func (m *memStore) Account(_ context.Context, uid string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[uid]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *memStore) PutProfile(_ context.Context, collection, id string, doc domain.Document, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if collection == "" || id == "" {
		return domain.ErrInvalidInput
	}
	col, ok := m.docs[collection]
	if !ok {
		col = map[string]domain.Document{}
		m.docs[collection] = col
	}
	existing, found := col[id]
	if !found {
		m.order[collection] = append(m.order[collection], id)
	}
	next := domain.Document{}
	if merge && found {
		for k, v := range existing {
			next[k] = v
		}
	}
	for k, v := range doc {
		next[k] = v
	}
	col[id] = next
	return nil
}

func (m *memStore) GetProfile(_ context.Context, collection, id string) (domain.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	return doc, ok, nil
}

func (m *memStore) QueryWhere(_ context.Context, collection, field string, value any) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Document{}
	for _, id := range m.order[collection] {
		doc := m.docs[collection][id]
		if doc[field] == value {
			out = append(out, doc)
		}
	}
	return out, nil
}

// recordingBroker captures published payloads.
type recordingBroker struct {
	mu        sync.Mutex
	published [][]byte
	topics    []string
	err       error
}

func (b *recordingBroker) Publish(_ context.Context, topic string, _ string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message)
	b.topics = append(b.topics, topic)
	return nil
}

func (b *recordingBroker) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBroker) Close() error { return nil }
