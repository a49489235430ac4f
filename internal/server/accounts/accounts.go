package accounts

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hoardhq/hoard/internal/server/storage"
	"github.com/hoardhq/hoard/internal/utils"
)

const secretBytes = 32

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
	username TEXT PRIMARY KEY,
	secret TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrBadCredentials  = errors.New("bad credentials")
)

type Account struct {
	Username  string `db:"username"`
	Secret    string `db:"secret"`
	CreatedAt string `db:"created_at"`
}

// AccountService is the registry of provisioned users. Creating an account
// provisions the user's storage bucket; deleting it tears the bucket down.
type AccountService struct {
	db      *sqlx.DB
	storage *storage.StorageService
}

func NewAccountService(db *sqlx.DB, storage *storage.StorageService) (*AccountService, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("initialize accounts schema: %w", err)
	}
	return &AccountService{db: db, storage: storage}, nil
}

// Create registers a new account and provisions its bucket. The returned
// secret is the only time it is handed out; callers must pass it on to the user.
func (s *AccountService) Create(ctx context.Context, username string) (*Account, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}
	username = strings.ToLower(username)

	account := &Account{
		Username:  username,
		Secret:    utils.TokenHex(secretBytes),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, secret, created_at) VALUES (?, ?, ?)`,
		account.Username, account.Secret, account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	if err := s.storage.ProvisionUser(ctx, username); err != nil {
		// roll the registration back so a retry can succeed
		if _, derr := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE username = ?`, username); derr != nil {
			slog.Error("account rollback failed", "user", username, "error", derr)
		}
		return nil, fmt.Errorf("provision storage: %w", err)
	}

	slog.Info("account created", "user", username)
	return account, nil
}

// Get returns the account for a username.
func (s *AccountService) Get(ctx context.Context, username string) (*Account, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}
	username = strings.ToLower(username)

	var account Account
	err := s.db.GetContext(ctx, &account,
		`SELECT username, secret, created_at FROM accounts WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &account, nil
}

// Verify checks a username/secret pair. Unknown users and wrong secrets are
// indistinguishable to the caller.
func (s *AccountService) Verify(ctx context.Context, username, secret string) error {
	account, err := s.Get(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrBadCredentials
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(account.Secret), []byte(secret)) != 1 {
		return ErrBadCredentials
	}
	return nil
}

// Delete removes the account and deprovisions its bucket with all stored data.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	username = strings.ToLower(username)
	if _, err := s.Get(ctx, username); err != nil {
		return err
	}

	if err := s.storage.DeprovisionUser(ctx, username); err != nil {
		return fmt.Errorf("deprovision storage: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE username = ?`, username); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	slog.Info("account deleted", "user", username)
	return nil
}

// Exists reports whether a username is registered.
func (s *AccountService) Exists(ctx context.Context, username string) bool {
	_, err := s.Get(ctx, username)
	return err == nil
}

func isUniqueViolation(err error) bool {
	// both sqlite drivers surface constraint failures with this text
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
