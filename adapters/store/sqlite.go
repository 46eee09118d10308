package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    uid                TEXT PRIMARY KEY,
    email              TEXT NOT NULL UNIQUE,
    password_hash      TEXT NOT NULL,
    email_verified     INTEGER NOT NULL DEFAULT 0,
    verification_hash  TEXT,
    created_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_verification ON accounts(verification_hash);

CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT NOT NULL,
    id          TEXT NOT NULL,
    body        TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
`

const minPasswordLength = 6

// Fixed-width so that timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open opens the sqlite database at path. A single connection is kept so that
// ":memory:" databases survive across calls.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.In("store").With("path", path).Wrapf(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, oops.In("store").With("path", path).Wrapf(err, "configure sqlite")
	}
	return db, nil
}

// SQLiteStore implements domain.AccountStore on a sqlite database: accounts in their own
// table, profiles as JSON documents.
type SQLiteStore struct {
	db        *sql.DB
	passwords domain.PasswordHasher
	tokens    domain.Hasher
	sender    domain.VerificationSender
	verifyURL string
	validate  *validator.Validate
	now       func() time.Time
}

// NewSQLiteStore creates the schema and returns the store. verifyURL is the endpoint
// verification tokens are appended to.
func NewSQLiteStore(
	db *sql.DB,
	passwords domain.PasswordHasher,
	tokens domain.Hasher,
	sender domain.VerificationSender,
	verifyURL string,
) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, oops.In("store").Wrapf(err, "create schema")
	}
	return &SQLiteStore{
		db:        db,
		passwords: passwords,
		tokens:    tokens,
		sender:    sender,
		verifyURL: verifyURL,
		validate:  validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, email, password string) (domain.Account, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return domain.Account{}, domain.ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return domain.Account{}, domain.ErrWeakPassword
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		UID:       uuid.NewString(),
		Email:     email,
		CreatedAt: s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Account{}, oops.In("store").Wrapf(err, "begin create account")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE email = ?`, email).Scan(&exists)
	switch {
	case err == nil:
		return domain.Account{}, domain.ErrEmailInUse
	case !errors.Is(err, sql.ErrNoRows):
		return domain.Account{}, oops.In("store").Wrapf(err, "lookup email")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (uid, email, password_hash, email_verified, created_at) VALUES (?, ?, ?, 0, ?)`,
		account.UID, account.Email, hash, account.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.Account{}, domain.ErrEmailInUse
		}
		return domain.Account{}, oops.In("store").With("uid", account.UID).Wrapf(err, "insert account")
	}
	if err := tx.Commit(); err != nil {
		return domain.Account{}, oops.In("store").Wrapf(err, "commit create account")
	}

	log.WithCtx(ctx).Info("account created", zap.String("uid", account.UID))
	return account, nil
}

func (s *SQLiteStore) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	account, hash, err := s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT uid, email, password_hash, email_verified, created_at FROM accounts WHERE email = ?`,
		normalizeEmail(email),
	))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Account{}, err
	}
	if err := s.passwords.Compare(hash, password); err != nil {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	return account, nil
}

func (s *SQLiteStore) Account(ctx context.Context, uid string) (domain.Account, error) {
	account, _, err := s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT uid, email, password_hash, email_verified, created_at FROM accounts WHERE uid = ?`, uid,
	))
	return account, err
}

func (s *SQLiteStore) scanAccount(row *sql.Row) (domain.Account, string, error) {
	var (
		account   domain.Account
		hash      string
		verified  int
		createdAt string
	)
	err := row.Scan(&account.UID, &account.Email, &hash, &verified, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, "", domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, "", oops.In("store").Wrapf(err, "scan account")
	}
	account.EmailVerified = verified != 0
	account.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return account, hash, nil
}

func (s *SQLiteStore) SendVerification(ctx context.Context, account domain.Account) error {
	token := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET verification_hash = ? WHERE uid = ?`,
		s.tokens.Hash([]byte(token)), account.UID,
	)
	if err != nil {
		return oops.In("store").With("uid", account.UID).Wrapf(err, "store verification token")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	link := s.verifyURL + "?token=" + url.QueryEscape(token)
	if err := s.sender.SendVerification(ctx, account.Email, link); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) VerifyEmail(ctx context.Context, token string) (domain.Account, error) {
	if token == "" {
		return domain.Account{}, domain.ErrNotFound
	}
	digest := s.tokens.Hash([]byte(token))

	account, _, err := s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT uid, email, password_hash, email_verified, created_at FROM accounts WHERE verification_hash = ?`,
		digest,
	))
	if err != nil {
		return domain.Account{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE accounts SET email_verified = 1, verification_hash = NULL WHERE uid = ?`, account.UID,
	)
	if err != nil {
		return domain.Account{}, oops.In("store").With("uid", account.UID).Wrapf(err, "mark verified")
	}
	account.EmailVerified = true
	return account, nil
}

func (s *SQLiteStore) PutProfile(ctx context.Context, collection, id string, doc domain.Document, merge bool) error {
	if collection == "" || id == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.In("store").Wrapf(err, "begin put profile")
	}
	defer tx.Rollback()

	body := doc
	if merge {
		existing, found, err := getDocument(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		if found {
			for k, v := range doc {
				existing[k] = v
			}
			body = existing
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return oops.In("store").With("collection", collection).Wrapf(err, "encode document")
	}

	now := s.now().UTC().Format(timestampLayout)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection, id, string(raw), now, now,
	)
	if err != nil {
		return oops.In("store").With("collection", collection, "id", id).Wrapf(err, "write document")
	}
	if err := tx.Commit(); err != nil {
		return oops.In("store").Wrapf(err, "commit put profile")
	}
	return nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, collection, id string) (domain.Document, bool, error) {
	return getDocument(ctx, s.db, collection, id)
}

func (s *SQLiteStore) QueryWhere(ctx context.Context, collection, field string, value any) ([]domain.Document, error) {
	if !fieldPattern.MatchString(field) {
		return nil, domain.ErrInvalidInput
	}
	// json_extract yields 1/0 for JSON booleans.
	if b, ok := value.(bool); ok {
		if b {
			value = 1
		} else {
			value = 0
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND json_extract(body, ?) = ? ORDER BY created_at, id`,
		collection, "$."+field, value,
	)
	if err != nil {
		return nil, oops.In("store").With("collection", collection, "field", field).Wrapf(err, "query documents")
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, oops.In("store").Wrapf(err, "scan document")
		}
		doc := domain.Document{}
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, oops.In("store").With("collection", collection).Wrapf(err, "decode document")
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryer, collection, id string) (domain.Document, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.In("store").With("collection", collection, "id", id).Wrapf(err, "read document")
	}

	doc := domain.Document{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false, oops.In("store").With("collection", collection, "id", id).Wrapf(err, "decode document")
	}
	return doc, true, nil
}
