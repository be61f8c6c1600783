package s3put

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/derektruong/s3put/storage"
	"github.com/derektruong/s3put/storage/local"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// ErrObjectStoreRequired is returned by NewUploader without an object store.
var ErrObjectStoreRequired = errors.New("object store is required")

// ErrFileRequired is returned by Run when the configuration names no file.
var ErrFileRequired = errors.New("file is required")

// Uploader uploads the files of a specifier to an object store.
type Uploader interface {
	// Upload resolves specifier and uploads every file, one at a time, as
	// soon as it is resolved.
	//
	// Parameters:
	//   - ctx: the context for managing the upload lifecycle.
	//   - specifier: a file path, a directory or comma-separated `*.ext` patterns.
	//
	// Returns:
	//   - err: the first *FilesystemError or *TransferError, nil otherwise
	//     (including when nothing matched). Files after a failure are not
	//     attempted.
	Upload(ctx context.Context, specifier string) (err error)

	// Run uploads the configured File, ErrFileRequired when it is empty.
	Run(ctx context.Context) (err error)
}

// uploader runs upload tasks with a configuration
type uploader struct {
	logger logr.Logger
	cfg    Config
	store  storage.ObjectStore
	source *local.Source

	// options
	resolver  PathResolver
	gate      *Gate
	out       io.Writer
	errOut    io.Writer
	onOutcome OutcomeCallback
	now       func() time.Time
}

// NewUploader creates a new Uploader storing objects in store, with the
// optional UploaderOption(s). The configuration is validated.
func NewUploader(
	logger logr.Logger,
	cfg Config,
	store storage.ObjectStore,
	options ...UploaderOption,
) (Uploader, error) {
	return newUploader(logger, cfg, store, options...)
}

func newUploader(
	logger logr.Logger,
	cfg Config,
	store storage.ObjectStore,
	options ...UploaderOption,
) (u *uploader, err error) {
	if err = cfg.Validate(context.Background()); err != nil {
		return
	}
	if store == nil {
		err = ErrObjectStoreRequired
		return
	}
	u = &uploader{
		logger: logger.WithName("uploader"),
		cfg:    cfg,
		store:  store,
		source: local.NewSource(logger),
		gate:   NewGate(),
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(u)
	}
	return
}

func (u *uploader) Upload(ctx context.Context, specifier string) (err error) {
	var uploaded int
	for file, resolveErr := range u.resolver.Resolve(specifier) {
		if resolveErr != nil {
			u.logger.Error(resolveErr, "failed to resolve files", "specifier", specifier)
			return resolveErr
		}

		var outcome Outcome
		if outcome, err = u.runTask(ctx, file); err != nil {
			return
		}
		if outcome.Status == OutcomeStatusSkipped {
			// the gate stays aborted, every remaining file would be skipped
			return
		}
		uploaded++
	}

	if uploaded == 0 {
		u.logger.Info("no files to upload", "specifier", specifier)
	}
	return
}

func (u *uploader) Run(ctx context.Context) error {
	if u.cfg.File == "" {
		return ErrFileRequired
	}
	return u.Upload(ctx, u.cfg.File)
}
