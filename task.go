package s3put

import (
	"bytes"
	"context"
	"strings"

	"github.com/derektruong/s3put/internal/fileutils"
	"github.com/derektruong/s3put/storage"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// uploadParams is the request built for one resolved file.
type uploadParams struct {
	input storage.UploadInput
	// displayACL is the permission level shown to the user
	displayACL string
}

// buildParams builds the request for file. The ACL is the configured ACL,
// overridden to public-read when PublicFiles contains the file path.
func (u *uploader) buildParams(file ResolvedFile, content []byte) uploadParams {
	acl := u.cfg.ACL
	if u.cfg.PublicFiles != "" && strings.Contains(u.cfg.PublicFiles, file.Path) {
		acl = publicReadACL
	}
	return uploadParams{
		input: storage.UploadInput{
			Bucket:      u.cfg.Bucket,
			Key:         fileutils.NormalizeKey(u.cfg.Path, file.Path),
			Body:        bytes.NewReader(content),
			Size:        int64(len(content)),
			ACL:         acl,
			ContentType: u.cfg.ContentType,
		},
		displayACL: lo.Ternary(acl == "", privateACL, acl),
	}
}

// runTask uploads one resolved file while holding the gate. A skipped upload
// returns no error. A failed upload aborts the gate and returns a
// *TransferError.
func (u *uploader) runTask(ctx context.Context, file ResolvedFile) (outcome Outcome, err error) {
	content, info, err := u.source.ReadFile(ctx, file.LocalPath)
	if err != nil {
		return outcome, newFilesystemError("read", file.Path, err)
	}

	params := u.buildParams(file, content)
	outcome = Outcome{
		File:   file.Path,
		Bucket: params.input.Bucket,
		Key:    params.input.Key,
		ACL:    params.displayACL,
		Size:   params.input.Size,
	}
	defer func() {
		if u.onOutcome != nil {
			u.onOutcome(outcome)
		}
	}()

	if err = u.gate.Acquire(ctx); err != nil {
		if errors.Is(err, ErrGateAborted) {
			u.logger.V(1).Info("skipping upload after a failed upload", "file", file.Path)
			outcome.Status = OutcomeStatusSkipped
			return outcome, nil
		}
		outcome.Status = OutcomeStatusFailed
		outcome.Error = err
		return outcome, err
	}
	defer u.gate.Release()

	printStarted(u.out, outcome)
	u.logger.V(1).Info("starting upload",
		"file", file.Path, "bucket", outcome.Bucket, "key", outcome.Key,
		"size", info.Size, "modTime", info.ModTime)

	outcome.StartAt = u.now()
	out, err := u.store.Upload(ctx, params.input, u.cfg.TransferOptions())
	outcome.FinishAt = u.now()
	outcome.Duration = outcome.FinishAt.Sub(outcome.StartAt)
	outcome.BytesTransferred = out.BytesTransferred
	if err != nil {
		transferErr := &TransferError{
			Bucket: outcome.Bucket,
			Key:    outcome.Key,
			Err:    errors.WithStack(err),
		}
		printFailed(u.errOut, transferErr)
		u.logger.Error(transferErr, "upload failed",
			"file", file.Path, "bucket", outcome.Bucket, "key", outcome.Key,
			"errorName", transferErr.Name())
		// waiting uploads give up before this one releases the gate
		u.gate.Abort()
		outcome.Status = OutcomeStatusFailed
		outcome.Error = transferErr
		return outcome, transferErr
	}

	outcome.Status = OutcomeStatusCompleted
	outcome.Location = out.Location
	outcome.Throughput = throughput(outcome.Size, outcome.Duration)
	printCompleted(u.out, outcome)
	u.logger.V(1).Info("upload completed",
		"file", file.Path, "location", outcome.Location, "duration", outcome.Duration,
		"throughput", outcome.Throughput)
	return
}
