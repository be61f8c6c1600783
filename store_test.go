package s3put_test

import (
	"github.com/derektruong/s3put"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewS3Store", func() {
	It("should carry the retry budget of the config", func() {
		cfg := configFactory(func(cfg *s3put.Config) {
			cfg.MaxRetries = 2
		})
		store, err := s3put.NewS3Store(GinkgoLogr, cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(store.MaxRetries).To(Equal(2))
		Expect(store.MinPartSize).To(Equal(int64(5 * 1024 * 1024)))
	})

	It("should be usable as the object store of an uploader", func() {
		cfg := configFactory(nil)
		store, err := s3put.NewS3Store(GinkgoLogr, cfg)
		Expect(err).ToNot(HaveOccurred())
		_, err = s3put.NewUploader(GinkgoLogr, cfg, store)
		Expect(err).ToNot(HaveOccurred())
	})
})
