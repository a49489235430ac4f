package server

import (
	"github.com/jmoiron/sqlx"

	"github.com/hoardhq/hoard/internal/server/accounts"
	"github.com/hoardhq/hoard/internal/server/auth"
	"github.com/hoardhq/hoard/internal/server/storage"
)

type Services struct {
	Storage  *storage.StorageService
	Accounts *accounts.AccountService
	Auth     *auth.AuthService
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	store, err := storage.NewS3StoreWithConfig(&config.S3)
	if err != nil {
		return nil, err
	}

	storageSvc := storage.NewStorageService(store, config.Storage)

	accountsSvc, err := accounts.NewAccountService(db, storageSvc)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewAuthService(&config.Auth, accountsSvc)

	return &Services{
		Storage:  storageSvc,
		Accounts: accountsSvc,
		Auth:     authSvc,
	}, nil
}
