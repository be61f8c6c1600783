package s3

import (
	"bytes"
	"context"
	"io"
)

// partProducer slices a stream of bytes into in-memory parts. At most
// backlog parts are buffered ahead of the consumer.
type partProducer struct {
	parts chan filePart
	err   error
	r     io.Reader
}

type filePart struct {
	reader *bytes.Reader
	size   int64
}

func newPartProducer(src io.Reader, backlog int64) (*partProducer, <-chan filePart) {
	if backlog < 1 {
		backlog = 1
	}
	partChan := make(chan filePart, backlog)
	producer := &partProducer{
		parts: partChan,
		r:     src,
	}
	return producer, partChan
}

// drain should always be called by the consumer once it stops reading, it
// blocks until produce has returned.
func (pp *partProducer) drain() {
	for range pp.parts {
	}
}

func (pp *partProducer) produce(ctx context.Context, partSize int64) {
	defer close(pp.parts)
	for {
		part, ok, err := pp.nextPart(partSize)
		if err != nil {
			pp.err = err
			return
		}
		if !ok {
			// the source was fully read
			return
		}
		select {
		case pp.parts <- part:
		case <-ctx.Done():
			return
		}
	}
}

func (pp *partProducer) nextPart(size int64) (filePart, bool, error) {
	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(pp.r, size))
	if err != nil {
		return filePart{}, false, err
	}
	// io.Copy returns 0 once the source has nothing left
	if n == 0 {
		return filePart{}, false, nil
	}
	return filePart{
		reader: bytes.NewReader(buf.Bytes()),
		size:   n,
	}, true, nil
}
