package s3put

import (
	s3protoc "github.com/derektruong/s3put/protoc/s3"
	s3store "github.com/derektruong/s3put/storage/s3"
	"github.com/go-logr/logr"
)

// NewS3Store creates the S3 object store described by cfg: its endpoint,
// region and credentials, its timeouts and its retry budget.
func NewS3Store(logger logr.Logger, cfg Config) (*s3store.Uploader, error) {
	client := s3protoc.NewClient(cfg.Endpoint, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if cfg.ConnectTimeout > 0 {
		client.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.ResponseTimeout > 0 {
		client.ResponseTimeout = cfg.ResponseTimeout
	}

	store, err := s3store.NewUploader(logger, client)
	if err != nil {
		return nil, err
	}
	store.MaxRetries = cfg.MaxRetries
	return store, nil
}
