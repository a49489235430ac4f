package storage

import (
	"fmt"
	"time"

	"github.com/hoardhq/hoard/internal/utils"
)

const (
	// DefaultSinglePutMax is the size threshold below which a known-length upload
	// goes through a single put with a deadline. Larger or unknown-length bodies
	// use the multipart path.
	DefaultSinglePutMax = 5 << 20 // 5 MiB

	// DefaultPartSize bounds multipart buffering: memory use per upload is
	// proportional to one part, never to total body size. S3 requires >= 5 MiB.
	DefaultPartSize = 8 << 20 // 8 MiB

	// DefaultUploadTimeout caps single-shot uploads.
	DefaultUploadTimeout = 60 * time.Second
)

// S3Config configures the object store client.
type S3Config struct {
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Endpoint      string `mapstructure:"endpoint"`
	UseAccelerate bool   `mapstructure:"use_accelerate"`
}

func (c *S3Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("s3 `region` required")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("s3 `access_key` required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("s3 `secret_key` required")
	}
	if c.Endpoint != "" && !utils.IsValidURL(c.Endpoint) {
		return fmt.Errorf("invalid s3 endpoint URL %q", c.Endpoint)
	}
	return nil
}

// Config configures the storage service.
type Config struct {
	BucketSuffix  string        `mapstructure:"bucket_suffix"`
	SinglePutMax  int64         `mapstructure:"single_put_max"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BucketSuffix == "" {
		out.BucketSuffix = DefaultBucketSuffix
	}
	if out.SinglePutMax <= 0 {
		out.SinglePutMax = DefaultSinglePutMax
	}
	if out.UploadTimeout <= 0 {
		out.UploadTimeout = DefaultUploadTimeout
	}
	return out
}
