package s3put

import (
	"bytes"
	"time"

	mock_storage "github.com/derektruong/s3put/storage/mock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Uploader options", func() {
	var (
		store *mock_storage.MockObjectStore
		cfg   Config
	)

	BeforeEach(func() {
		store = mock_storage.NewMockObjectStore(gomock.NewController(GinkgoT()))
		cfg = DefaultConfig()
		cfg.File = "a.txt"
		cfg.Bucket = "bucket"
		cfg.Endpoint = "http://127.0.0.1:9000"
		cfg.AccessKeyID = "access"
		cfg.SecretAccessKey = "secret"
	})

	newTestUploader := func(options ...UploaderOption) *uploader {
		GinkgoHelper()
		u, err := newUploader(GinkgoLogr, cfg, store, options...)
		Expect(err).ToNot(HaveOccurred())
		return u
	}

	It("should set correct defaults", func() {
		u := newTestUploader()
		Expect(u.gate).ToNot(BeNil())
		Expect(u.resolver.WorkDir).To(BeEmpty())
		Expect(u.onOutcome).To(BeNil())
		Expect(u.now).ToNot(BeNil())
	})

	It("should set correct outputs", func() {
		var out, errOut bytes.Buffer
		u := newTestUploader(WithOutput(&out), WithErrorOutput(&errOut))
		Expect(u.out).To(BeIdenticalTo(&out))
		Expect(u.errOut).To(BeIdenticalTo(&errOut))
	})

	It("should share the given gate", func() {
		gate := NewGate()
		u := newTestUploader(WithGate(gate))
		Expect(u.gate).To(BeIdenticalTo(gate))
	})

	It("should ignore a nil gate", func() {
		u := newTestUploader(WithGate(nil))
		Expect(u.gate).ToNot(BeNil())
	})

	It("should set correct work dir", func() {
		u := newTestUploader(WithWorkDir("/srv/site"))
		Expect(u.resolver.WorkDir).To(Equal("/srv/site"))
	})

	It("should set correct clock", func() {
		fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		u := newTestUploader(WithClock(func() time.Time { return fixed }))
		Expect(u.now()).To(Equal(fixed))
	})

	It("should set correct outcome callback", func() {
		var got []Outcome
		u := newTestUploader(WithOutcomeCallback(func(o Outcome) { got = append(got, o) }))
		u.onOutcome(Outcome{File: "a.txt"})
		Expect(got).To(HaveLen(1))
	})

	It("should reject an invalid config", func() {
		cfg.Bucket = ""
		_, err := newUploader(GinkgoLogr, cfg, store)
		Expect(err).To(HaveOccurred())
	})

	It("should require an object store", func() {
		_, err := newUploader(GinkgoLogr, cfg, nil)
		Expect(err).To(MatchError(ErrObjectStoreRequired))
	})
})
