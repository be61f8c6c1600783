package s3

import (
	"time"

	"github.com/derektruong/s3put/protoc"
	s3protoc "github.com/derektruong/s3put/protoc/s3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// uploaderFactory creates a new Uploader for cli with the given uploaderEditorFn applied.
// Retry delays are shortened so retry paths run quickly.
func uploaderFactory(cli protoc.Client, uploaderEditorFn func(u *Uploader)) *Uploader {
	GinkgoHelper()
	u, err := NewUploader(GinkgoLogr, cli)
	Expect(err).ToNot(HaveOccurred())
	u.RetryDelay = time.Millisecond
	u.MaxRetryDelay = 5 * time.Millisecond
	if uploaderEditorFn != nil {
		uploaderEditorFn(u)
	}
	return u
}

func testProtocClient() *s3protoc.Client {
	return s3protoc.NewClient("http://127.0.0.1:9000", "us-east-1", "access-key", "secret-key")
}
