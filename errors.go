package s3put

import (
	"fmt"
	"io/fs"

	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// ErrGateAborted is returned by Gate.Acquire once the gate was aborted.
var ErrGateAborted = errors.New("upload gate aborted")

// FilesystemError is returned when a local file or directory cannot be read.
type FilesystemError struct {
	// Op is the failed operation: read, readdir
	Op string
	// Path is the path as produced by resolution
	Path string
	Err  error
}

func newFilesystemError(op, path string, err error) *FilesystemError {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// TransferError is returned when the object store failed to store a file
// after its own retries were exhausted.
type TransferError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Name classifies the failure: the API error code returned by the store, or
// "TransferError" when the request never got an API response.
func (e *TransferError) Name() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) && apiErr.ErrorCode() != "" {
		return apiErr.ErrorCode()
	}
	return "TransferError"
}

// Message is the human-readable cause of the failure.
func (e *TransferError) Message() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	return errors.Cause(e.Err).Error()
}

// Trace returns the cause followed by the stack recorded when the error
// crossed into the uploader.
func (e *TransferError) Trace() string {
	return fmt.Sprintf("%+v", e.Err)
}
