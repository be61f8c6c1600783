package storage

import "errors"

var ErrS3ProtocolClientInvalid = errors.New("protocol: client invalid, expected S3")
var ErrObjectTooLarge = errors.New("object size exceeds the maximum allowed object size")
var ErrShortBody = errors.New("object body ended before the declared size")
