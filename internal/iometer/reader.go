package iometer

//go:generate mockgen -destination=mock/mock_io.go -package=mock_iometer io ReadCloser

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// TransferReader wraps an io.Reader, counts the bytes read from it and
// optionally caps the read rate.
type TransferReader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *rate.Limiter

	// transferred is the number of bytes handed out to callers so far
	transferred atomic.Int64

	closed bool
}

// NewTransferReader constructs a new TransferReader. Rate limiting waits are
// bound to ctx.
func NewTransferReader(ctx context.Context, reader io.Reader) *TransferReader {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TransferReader{
		ctx:    ctx,
		reader: reader,
	}
}

// Read reads from the underlying reader and increments the counter.
func (tr *TransferReader) Read(p []byte) (n int, err error) {
	if tr.limiter != nil && len(p) > tr.limiter.Burst() {
		// WaitN rejects requests larger than the burst size
		p = p[:tr.limiter.Burst()]
	}
	n, err = tr.reader.Read(p)
	if n > 0 {
		if tr.limiter != nil {
			if waitErr := tr.limiter.WaitN(tr.ctx, n); waitErr != nil {
				return 0, waitErr
			}
		}
		tr.transferred.Add(int64(n))
	}
	return
}

// Close closes the underlying io.Reader if it implements the
// io.Closer interface.
func (tr *TransferReader) Close() (err error) {
	if tr.closed {
		return
	}
	if closer, ok := tr.reader.(io.Closer); ok {
		err = closer.Close()
	}
	tr.closed = true
	return
}

// TransferredSize returns the number of bytes read so far.
func (tr *TransferReader) TransferredSize() int64 {
	return tr.transferred.Load()
}

// BindContext binds rate limiting waits to ctx. It must not be called
// concurrently with Read.
func (tr *TransferReader) BindContext(ctx context.Context) {
	tr.ctx = ctx
}

// SetRateLimit caps the reader at bytesPerSec. A non-positive value removes
// the cap.
func (tr *TransferReader) SetRateLimit(bytesPerSec int64) {
	if bytesPerSec <= 0 {
		tr.limiter = nil
		return
	}
	tr.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	tr.limiter.AllowN(time.Now(), int(bytesPerSec)) // spend initial burst
}
