// Package s3 provides an object store backend using AWS S3 or compatible
// servers.
//
// In order to allow this backend to function properly, the user accessing the
// bucket must have at least following AWS IAM policy permissions for the
// bucket and all of its sub resources:
//
//	s3:AbortMultipartUpload
//	s3:PutObject
//	s3:PutObjectAcl (only when an ACL is applied)
//
// While this package uses the official AWS SDK for Go, Uploader is able to
// work with any S3-compatible service such as MinIO. The endpoint is taken
// from the protoc/s3 client, which always addresses buckets path-style.
//
// # Implementation
//
// Objects no larger than the part size are sent with a single PutObject.
// Larger objects use a multipart upload
// (http://docs.aws.amazon.com/AmazonS3/latest/dev/uploadobjusingmpu.html):
// the body is sliced into in-memory parts of the part size, at most
// Concurrency parts are buffered and in flight at once, and the upload is
// completed once every part has been acknowledged. Any failure aborts the
// multipart upload, which removes the parts already stored.
//
// Every request is retried up to MaxRetries times with exponential backoff
// when the SDK classifies its error as retryable (throttling, timeouts,
// connection resets, 5xx responses).
package s3

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsretry "github.com/aws/aws-sdk-go-v2/aws/retry"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/derektruong/s3put/internal/iometer"
	"github.com/derektruong/s3put/protoc"
	"github.com/derektruong/s3put/protoc/s3"
	"github.com/derektruong/s3put/storage"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var retryableErrors = awsretry.IsErrorRetryables(awsretry.DefaultRetryables)

// s3Part represents a single part of a S3 multipart upload.
type s3Part struct {
	number int32
	size   int64
	etag   string
}

type Uploader struct {
	// MaxObjectSize is the maximum size an S3 Object can have according to S3
	// API specifications.
	MaxObjectSize int64

	// MinPartSize specifies the minimum size of a single part uploaded to S3
	// in bytes. This number needs to match with the underlying S3 backend or else
	// uploaded parts will be rejected. AWS S3, for examples, uses 5MB for this value.
	MinPartSize int64

	// MaxPartSize specifies the maximum size of a single part uploaded to S3
	// in bytes. The requested part size grows up to this value when the object
	// would not fit into MaxMultipartParts parts otherwise.
	MaxPartSize int64

	// MaxMultipartParts is the maximum number of parts an S3 multipart upload is
	// allowed to have according to AWS S3 API specifications.
	// See: http://docs.aws.amazon.com/AmazonS3/latest/dev/qfacts.html
	MaxMultipartParts int64

	// MaxRetries is the number of times a failed request is retried, default = 6.
	MaxRetries int

	// RetryDelay is the initial delay before the first retry, default = 1 second.
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay between retries, default = 30 seconds.
	MaxRetryDelay time.Duration

	logger logr.Logger
	client protoc.S3API
	cred   s3.Client
}

// NewUploader constructs a new Uploader sending requests through cli, which
// must be an S3 protocol client.
func NewUploader(logger logr.Logger, cli protoc.Client) (u *Uploader, err error) {
	cred, ok := cli.GetCredential().(s3.Client)
	if !ok {
		err = storage.ErrS3ProtocolClientInvalid
		return
	}
	u = &Uploader{
		MaxObjectSize:     5 * 1024 * 1024 * 1024 * 1024, // 5TB
		MinPartSize:       5 * 1024 * 1024,               // 5MB
		MaxPartSize:       5 * 1024 * 1024 * 1024,        // 5GB
		MaxMultipartParts: 10000,
		MaxRetries:        6,
		RetryDelay:        1 * time.Second,
		MaxRetryDelay:     30 * time.Second,
		logger:            logger.WithName("s3.uploader").WithValues("connectionID", cli.GetConnectionID()),
		client:            cli.GetS3API(),
		cred:              cred,
	}
	return
}

func (u *Uploader) Upload(
	ctx context.Context,
	input storage.UploadInput,
	opts storage.TransferOptions,
) (out storage.UploadOutput, err error) {
	startTime := time.Now()
	if input.Size > u.MaxObjectSize {
		err = fmt.Errorf("%w (%d > %d)", storage.ErrObjectTooLarge, input.Size, u.MaxObjectSize)
		return
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if input.Body == nil {
		input.Body = bytes.NewReader(nil)
	}

	var partSize int64
	if partSize, err = u.calcOptimalPartSize(input.Size, opts.PartSize); err != nil {
		return
	}

	// every byte of the body goes through the meter, which enforces the bandwidth cap
	body := iometer.NewTransferReader(ctx, input.Body)
	defer body.Close()
	body.SetRateLimit(opts.MaxBandwidth)

	logger := u.logger.WithValues("bucket", input.Bucket, "key", input.Key)
	if input.Size <= partSize {
		out, err = u.putObject(ctx, input, body)
	} else {
		logger.V(1).Info("starting multipart upload", "size", input.Size, "partSize", partSize,
			"concurrency", opts.Concurrency)
		out, err = u.uploadMultipart(ctx, input, body, partSize, opts.Concurrency)
	}
	out.BytesTransferred = body.TransferredSize()
	out.Duration = time.Since(startTime)
	if err != nil {
		return
	}

	logger.V(1).Info("object stored", "location", out.Location, "parts", out.PartCount,
		"bytes", out.BytesTransferred, "duration", out.Duration)
	return
}

func (u *Uploader) putObject(
	ctx context.Context,
	input storage.UploadInput,
	body io.Reader,
) (out storage.UploadOutput, err error) {
	var content []byte
	if content, err = io.ReadAll(io.LimitReader(body, input.Size)); err != nil {
		return
	}
	if int64(len(content)) < input.Size {
		return out, storage.ErrShortBody
	}
	part := filePart{reader: bytes.NewReader(content), size: int64(len(content))}

	var res *awss3.PutObjectOutput
	if res, err = withRetry(ctx, u, "PutObject", func() (*awss3.PutObjectOutput, error) {
		if _, err := part.reader.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return u.client.PutObject(ctx, &awss3.PutObjectInput{
			Bucket:        aws.String(input.Bucket),
			Key:           aws.String(input.Key),
			Body:          part.reader,
			ContentLength: aws.Int64(part.size),
			ACL:           types.ObjectCannedACL(input.ACL),
			ContentType:   lo.EmptyableToPtr(input.ContentType),
		})
	}); err != nil {
		return
	}

	out = storage.UploadOutput{
		Location:  u.cred.ObjectURL(input.Bucket, input.Key),
		ETag:      lo.FromPtr(res.ETag),
		PartCount: 1,
	}
	return
}

func (u *Uploader) uploadMultipart(
	ctx context.Context,
	input storage.UploadInput,
	body *iometer.TransferReader,
	partSize int64,
	concurrency int,
) (out storage.UploadOutput, err error) {
	var created *awss3.CreateMultipartUploadOutput
	if created, err = withRetry(ctx, u, "CreateMultipartUpload", func() (*awss3.CreateMultipartUploadOutput, error) {
		return u.client.CreateMultipartUpload(ctx, &awss3.CreateMultipartUploadInput{
			Bucket:      aws.String(input.Bucket),
			Key:         aws.String(input.Key),
			ACL:         types.ObjectCannedACL(input.ACL),
			ContentType: lo.EmptyableToPtr(input.ContentType),
		})
	}); err != nil {
		return out, fmt.Errorf("unable to create multipart upload: %w", err)
	}
	uploadID := lo.FromPtr(created.UploadId)
	out.UploadID = uploadID

	var parts []*s3Part
	if parts, err = u.uploadParts(ctx, input, uploadID, body, partSize, concurrency); err != nil {
		return out, u.abortMultipart(ctx, input, uploadID, err)
	}

	totalPartSize := lo.SumBy(parts, func(p *s3Part) int64 { return p.size })
	if totalPartSize < input.Size {
		return out, u.abortMultipart(ctx, input, uploadID, storage.ErrShortBody)
	}

	completedParts := lo.Map(parts, func(p *s3Part, _ int) types.CompletedPart {
		return types.CompletedPart{
			ETag:       aws.String(p.etag),
			PartNumber: aws.Int32(p.number),
		}
	})
	slices.SortFunc(completedParts, func(a, b types.CompletedPart) int {
		return cmp.Compare(*a.PartNumber, *b.PartNumber)
	})

	var completed *awss3.CompleteMultipartUploadOutput
	if completed, err = withRetry(ctx, u, "CompleteMultipartUpload", func() (*awss3.CompleteMultipartUploadOutput, error) {
		return u.client.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
			Bucket:   aws.String(input.Bucket),
			Key:      aws.String(input.Key),
			UploadId: aws.String(uploadID),
			MultipartUpload: &types.CompletedMultipartUpload{
				Parts: completedParts,
			},
		})
	}); err != nil {
		return out, u.abortMultipart(ctx, input, uploadID, err)
	}

	out.Location = lo.FromPtrOr(completed.Location, u.cred.ObjectURL(input.Bucket, input.Key))
	out.ETag = lo.FromPtr(completed.ETag)
	out.PartCount = len(parts)
	return
}

func (u *Uploader) uploadParts(
	ctx context.Context,
	input storage.UploadInput,
	uploadID string,
	src *iometer.TransferReader,
	partSize int64,
	concurrency int,
) (parts []*s3Part, err error) {
	producer, partChan := newPartProducer(src, int64(concurrency))
	producerCtx, cancelProducer := context.WithCancel(ctx)
	// a failed part must not wait for the bandwidth cap before drain returns
	src.BindContext(producerCtx)
	defer func() {
		cancelProducer()
		producer.drain()
	}()
	go producer.produce(producerCtx, partSize)

	// uploadSemaphore limits the number of concurrent part uploads to S3.
	uploadSemaphore := semaphore.NewWeighted(int64(concurrency))
	eg, egCtx := errgroup.WithContext(ctx)
	nextPartNum := int32(1)

produceLoop:
	for {
		// we acquire the semaphore before reading from the channel, so no more
		// than concurrency parts are held in memory waiting to be sent.
		if err = uploadSemaphore.Acquire(egCtx, 1); err != nil {
			break
		}
		var (
			part filePart
			more bool
		)
		select {
		case part, more = <-partChan:
		case <-egCtx.Done():
			uploadSemaphore.Release(1)
			err = egCtx.Err()
			break produceLoop
		}
		if !more {
			uploadSemaphore.Release(1)
			break
		}

		p := &s3Part{
			number: nextPartNum,
			size:   part.size,
		}
		parts = append(parts, p)

		eg.Go(func() error {
			defer uploadSemaphore.Release(1)
			etag, err := u.putPart(egCtx, input, uploadID, p, part.reader)
			if err != nil {
				return err
			}
			p.etag = etag
			return nil
		})
		nextPartNum++
	}

	if uploadErr := eg.Wait(); uploadErr != nil {
		return nil, uploadErr
	}
	if err != nil {
		return nil, err
	}
	if producer.err != nil {
		return nil, producer.err
	}
	return parts, nil
}

func (u *Uploader) putPart(
	ctx context.Context,
	input storage.UploadInput,
	uploadID string,
	part *s3Part,
	body io.ReadSeeker,
) (string, error) {
	res, err := withRetry(ctx, u, "UploadPart", func() (*awss3.UploadPartOutput, error) {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return u.client.UploadPart(ctx, &awss3.UploadPartInput{
			Bucket:        aws.String(input.Bucket),
			Key:           aws.String(input.Key),
			UploadId:      aws.String(uploadID),
			PartNumber:    aws.Int32(part.number),
			Body:          body,
			ContentLength: aws.Int64(part.size),
		})
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload part %d: %w", part.number, err)
	}
	return lo.FromPtr(res.ETag), nil
}

// abortMultipart aborts the multipart upload after cause and returns cause
// joined with any abort failure. It runs even when ctx is already cancelled.
func (u *Uploader) abortMultipart(
	ctx context.Context,
	input storage.UploadInput,
	uploadID string,
	cause error,
) error {
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	u.logger.Info("aborting multipart upload",
		"bucket", input.Bucket, "key", input.Key, "uploadID", uploadID, "errorMessage", cause.Error())
	if _, err := u.client.AbortMultipartUpload(abortCtx, &awss3.AbortMultipartUploadInput{
		Bucket:   aws.String(input.Bucket),
		Key:      aws.String(input.Key),
		UploadId: aws.String(uploadID),
	}); err != nil && !isAwsError[*types.NoSuchUpload](err) && !isAwsErrorCode(err, "NoSuchUpload") {
		return errors.Join(cause, fmt.Errorf("unable to abort multipart upload: %w", err))
	}
	return cause
}

// calcOptimalPartSize returns the part size to use for an object of the given
// size, starting from the preferred size.
func (u *Uploader) calcOptimalPartSize(size, preferredPartSize int64) (optimalPartSize int64, err error) {
	if preferredPartSize <= 0 {
		preferredPartSize = u.MinPartSize
	}
	switch {
	// When upload is smaller or equal to preferredPartSize, we upload in just one part.
	case size <= preferredPartSize:
		optimalPartSize = preferredPartSize
	// Does the upload fit in MaxMultipartParts parts or less with preferredPartSize.
	case size <= preferredPartSize*u.MaxMultipartParts:
		optimalPartSize = preferredPartSize
	// The integer division rounds down, so a remainder means one more byte per
	// part is needed to fit into MaxMultipartParts parts.
	case size%u.MaxMultipartParts == 0:
		optimalPartSize = size / u.MaxMultipartParts
	default:
		optimalPartSize = size/u.MaxMultipartParts + 1
	}

	// optimalPartSize must never exceed MaxPartSize
	if optimalPartSize > u.MaxPartSize {
		return optimalPartSize, fmt.Errorf("calcOptimalPartSize: to upload %v bytes optimalPartSize %v must exceed MaxPartSize %v", size, optimalPartSize, u.MaxPartSize)
	}
	return optimalPartSize, nil
}

// withRetry runs fn until it succeeds, fails with a non-retryable error or
// the retry budget of u is spent.
func withRetry[T any](ctx context.Context, u *Uploader, operation string, fn func() (T, error)) (T, error) {
	if u.MaxRetries <= 0 {
		return fn()
	}
	return retry.DoWithData(
		retry.RetryableFuncWithData[T](fn),
		retry.Context(ctx),
		retry.Attempts(uint(u.MaxRetries)+1),
		retry.Delay(u.RetryDelay),
		retry.MaxDelay(u.MaxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			u.logger.Info("retrying request",
				"operation", operation,
				"errorMessage", err.Error(),
				"retryAttempts", n+1)
		}),
	)
}

func isRetryable(err error) bool {
	return retryableErrors.IsErrorRetryable(err) == aws.TrueTernary
}

// isAwsError tests whether an error object is an instance of the AWS error
// specified by its code.
func isAwsError[T error](err error) bool {
	var awsErr T
	return errors.As(err, &awsErr)
}

func isAwsErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == code
	}
	return false
}
