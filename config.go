package s3put

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/derektruong/s3put/internal/protocutils"
	"github.com/derektruong/s3put/storage"
	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// validate use a single instance of validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

const (
	defaultRegion          = "us-east-1"
	defaultPartSize        = 50 * 1024 * 1024 // 50 MiB
	defaultConcurrency     = 1
	defaultMaxRetries      = 6
	defaultConnectTimeout  = 60 * time.Second
	defaultResponseTimeout = 300 * time.Second

	publicReadACL = "public-read"
	privateACL    = "private"
)

// Environment variables read by LoadConfig.
const (
	EnvFile            = "FILE"
	EnvBucket          = "S3_BUCKET"
	EnvPath            = "S3_PATH"
	EnvACL             = "S3_ACL"
	EnvContentType     = "CONTENT_TYPE"
	EnvPublicFiles     = "PUBLIC_FILES"
	EnvEndpoint        = "S3_ENDPOINT"
	EnvRegion          = "S3_REGION"
	EnvAccessKeyID     = "S3_ACCESS_KEY_ID"
	EnvSecretAccessKey = "S3_SECRET_ACCESS_KEY"
	EnvPartSize        = "S3_PART_SIZE"
	EnvConcurrency     = "S3_QUEUE_SIZE"
	EnvMaxRetries      = "S3_MAX_RETRIES"
	EnvConnectTimeout  = "S3_CONNECT_TIMEOUT"
	EnvResponseTimeout = "S3_RESPONSE_TIMEOUT"
	EnvMaxBandwidth    = "S3_MAX_BANDWIDTH"
)

// Config holds every setting of an upload run.
type Config struct {
	// File is the specifier uploaded by Run, required by Run only
	File string `json:"file" yaml:"file"`
	// Bucket is the destination bucket
	Bucket string `json:"bucket" yaml:"bucket" validate:"required"`
	// Path is prepended verbatim to every object key
	Path string `json:"path" yaml:"path"`
	// ACL is the canned ACL applied to every object, empty means the bucket default
	ACL string `json:"acl" yaml:"acl" validate:"omitempty,oneof=private public-read public-read-write authenticated-read aws-exec-read bucket-owner-read bucket-owner-full-control"`
	// ContentType is applied to every object when set
	ContentType string `json:"contentType" yaml:"contentType"`
	// PublicFiles gets public-read applied to every file whose path it contains
	PublicFiles string `json:"publicFiles" yaml:"publicFiles"`

	Endpoint        string `json:"endpoint" yaml:"endpoint" validate:"required,url"`
	Region          string `json:"region" yaml:"region" validate:"required"`
	AccessKeyID     string `json:"accessKeyId" yaml:"accessKeyId" validate:"required"`
	SecretAccessKey string `json:"secretAccessKey" yaml:"secretAccessKey" validate:"required"`

	// PartSize is the multipart upload part size, default = 50 MiB
	PartSize int64 `json:"partSize" yaml:"partSize" validate:"gte=5242880"`
	// Concurrency is the number of parts sent at once, default = 1
	Concurrency int `json:"concurrency" yaml:"concurrency" validate:"gte=1"`
	// MaxRetries is the number of retries of a failed request, default = 6
	MaxRetries int `json:"maxRetries" yaml:"maxRetries" validate:"gte=0"`
	// ConnectTimeout bounds connection establishment, default = 60 seconds
	ConnectTimeout time.Duration `json:"connectTimeout" yaml:"connectTimeout" validate:"gt=0s"`
	// ResponseTimeout bounds waiting for a response, default = 300 seconds
	ResponseTimeout time.Duration `json:"responseTimeout" yaml:"responseTimeout" validate:"gt=0s"`
	// MaxBandwidth caps the upload rate in bytes per second, 0 = unlimited
	MaxBandwidth int64 `json:"maxBandwidth" yaml:"maxBandwidth" validate:"gte=0"`
}

// DefaultConfig returns a Config with every default set.
func DefaultConfig() Config {
	return Config{
		Region:          defaultRegion,
		PartSize:        defaultPartSize,
		Concurrency:     defaultConcurrency,
		MaxRetries:      defaultMaxRetries,
		ConnectTimeout:  defaultConnectTimeout,
		ResponseTimeout: defaultResponseTimeout,
	}
}

func (c Config) Validate(ctx context.Context) error {
	return validate.StructCtx(ctx, c)
}

// TransferOptions returns the options every object is sent with.
func (c Config) TransferOptions() storage.TransferOptions {
	return storage.TransferOptions{
		PartSize:     c.PartSize,
		Concurrency:  c.Concurrency,
		MaxBandwidth: c.MaxBandwidth,
	}
}

// LoadConfig reads the configuration from environment variables through
// lookup, usually os.LookupEnv, on top of DefaultConfig. A variable set to
// an empty string counts as unset. Sizes accept units ("50MiB", "5 MB"),
// timeouts accept durations ("90s") or a number of seconds. The result is
// not validated.
func LoadConfig(lookup func(key string) (string, bool)) (cfg Config, err error) {
	cfg = DefaultConfig()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	}
	setString := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	setString(EnvFile, &cfg.File)
	setString(EnvBucket, &cfg.Bucket)
	setString(EnvPath, &cfg.Path)
	setString(EnvACL, &cfg.ACL)
	setString(EnvContentType, &cfg.ContentType)
	setString(EnvPublicFiles, &cfg.PublicFiles)
	setString(EnvEndpoint, &cfg.Endpoint)
	setString(EnvRegion, &cfg.Region)
	setString(EnvAccessKeyID, &cfg.AccessKeyID)
	setString(EnvSecretAccessKey, &cfg.SecretAccessKey)
	cfg.Endpoint = protocutils.BuildEndpoint(cfg.Endpoint)

	if v, ok := get(EnvPartSize); ok {
		if cfg.PartSize, err = parseSize(v); err != nil {
			return cfg, errors.Wrapf(err, "invalid %s", EnvPartSize)
		}
	}
	if v, ok := get(EnvMaxBandwidth); ok {
		if cfg.MaxBandwidth, err = parseSize(v); err != nil {
			return cfg, errors.Wrapf(err, "invalid %s", EnvMaxBandwidth)
		}
	}
	if v, ok := get(EnvConcurrency); ok {
		if cfg.Concurrency, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return cfg, errors.Wrapf(err, "invalid %s", EnvConcurrency)
		}
	}
	if v, ok := get(EnvMaxRetries); ok {
		if cfg.MaxRetries, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return cfg, errors.Wrapf(err, "invalid %s", EnvMaxRetries)
		}
	}
	if v, ok := get(EnvConnectTimeout); ok {
		if cfg.ConnectTimeout, err = parseTimeout(v); err != nil {
			return cfg, errors.Wrapf(err, "invalid %s", EnvConnectTimeout)
		}
	}
	if v, ok := get(EnvResponseTimeout); ok {
		if cfg.ResponseTimeout, err = parseTimeout(v); err != nil {
			return cfg, errors.Wrapf(err, "invalid %s", EnvResponseTimeout)
		}
	}
	return
}

func parseSize(v string) (int64, error) {
	size, err := humanize.ParseBytes(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if size > math.MaxInt64 {
		return 0, errors.Errorf("%s is too large", v)
	}
	return int64(size), nil
}

func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(v)
}
