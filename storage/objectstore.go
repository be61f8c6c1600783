package storage

//go:generate mockgen -destination=mock/mock_objectstore.go -package=mock_storage . ObjectStore

import (
	"context"
	"io"
	"time"
)

// UploadInput describes a single object to store.
type UploadInput struct {
	// Bucket is the destination bucket
	Bucket string
	// Key is the destination object key
	Key string
	// Body is the object content, closed by Upload when it is an io.Closer
	Body io.Reader
	// Size is the number of bytes Body yields
	Size int64
	// ACL is the canned ACL to apply, empty means the store default
	ACL string
	// ContentType is the Content-Type to apply, empty means the store default
	ContentType string
}

// TransferOptions controls how the object is sent.
type TransferOptions struct {
	// PartSize is the size of each part of a multipart upload
	PartSize int64
	// Concurrency is the number of parts in flight at once
	Concurrency int
	// MaxBandwidth caps the upload rate in bytes per second, 0 means unlimited
	MaxBandwidth int64
}

// UploadOutput reports a finished upload.
type UploadOutput struct {
	// Location is the URL of the stored object
	Location string
	// ETag of the stored object, as returned by the store
	ETag string
	// UploadID is the multipart upload ID, empty for single request uploads
	UploadID string
	// PartCount is the number of parts sent
	PartCount int
	// BytesTransferred is the number of body bytes sent
	BytesTransferred int64
	// Duration is the wall-clock time spent in the store
	Duration time.Duration
}

type ObjectStore interface {
	// Upload stores the object described by input.
	//
	// Parameters:
	//  - ctx: the context of the request
	//  - input: the object to store
	//  - opts: the transfer options (part size, concurrency, bandwidth)
	//
	// Returns:
	//  - out: the location and statistics of the stored object
	//  - err: the error if any occurred after retries were exhausted, nil otherwise
	Upload(ctx context.Context, input UploadInput, opts TransferOptions) (out UploadOutput, err error)
}
