package server

import (
	"fmt"

	"github.com/hoardhq/hoard/internal/server/auth"
	"github.com/hoardhq/hoard/internal/server/storage"
	"github.com/hoardhq/hoard/internal/utils"
)

const DefaultAddr = "0.0.0.0:8080"

type Config struct {
	HTTP     HTTPConfig       `mapstructure:"http"`
	S3       storage.S3Config `mapstructure:"s3"`
	Storage  storage.Config   `mapstructure:"storage"`
	Auth     auth.Config      `mapstructure:"auth"`
	Accounts AccountsConfig   `mapstructure:"accounts"`
	DBPath   string           `mapstructure:"db_path"`
}

type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	BaseURL  string `mapstructure:"base_url"` // external URL advertised in discovery documents
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type AccountsConfig struct {
	SignupEnabled bool   `mapstructure:"signup_enabled"`
	InviteCode    string `mapstructure:"invite_code"`
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http `addr` is required")
	}
	if c.HTTP.BaseURL != "" && !utils.IsValidURL(c.HTTP.BaseURL) {
		return fmt.Errorf("invalid http `base_url` %q", c.HTTP.BaseURL)
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return fmt.Errorf("http `cert_file` and `key_file` must be set together")
	}
	if c.HTTP.CertFile != "" {
		if !utils.FileExists(c.HTTP.CertFile) {
			return fmt.Errorf("http `cert_file` %q does not exist", c.HTTP.CertFile)
		}
		if !utils.FileExists(c.HTTP.KeyFile) {
			return fmt.Errorf("http `key_file` %q does not exist", c.HTTP.KeyFile)
		}
	}
	if err := c.S3.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return nil
}
