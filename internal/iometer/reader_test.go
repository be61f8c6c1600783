package iometer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/derektruong/s3put/internal/iometer"
	mock_iometer "github.com/derektruong/s3put/internal/iometer/mock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TransferReader", func() {
	var (
		mockCtrl       *gomock.Controller
		mockReadCloser *mock_iometer.MockReadCloser
		transferReader *iometer.TransferReader
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		DeferCleanup(mockCtrl.Finish)
		mockReadCloser = mock_iometer.NewMockReadCloser(mockCtrl)
		transferReader = iometer.NewTransferReader(context.Background(), bytes.NewBufferString("test data"))
	})

	Describe("Read", func() {
		It("should read data and count it", func(ctx context.Context) {
			data := make([]byte, 5)
			n, err := transferReader.Read(data)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(5))
			Expect(string(data)).To(Equal("test "))
			Expect(transferReader.TransferredSize()).To(Equal(int64(5)))
		}, NodeTimeout(10*time.Second))

		It("should handle reading all data correctly", func(ctx context.Context) {
			data := make([]byte, 100)
			n, err := transferReader.Read(data)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(9))
			Expect(string(data[:n])).To(Equal("test data"))

			n, err = transferReader.Read(data)
			Expect(err).To(Equal(io.EOF))
			Expect(n).To(Equal(0))
			Expect(transferReader.TransferredSize()).To(Equal(int64(9)))
		}, NodeTimeout(10*time.Second))

		It("should propagate errors from the underlying reader", func(ctx context.Context) {
			errorReader := iometer.NewTransferReader(ctx, mockReadCloser)
			mockReadCloser.EXPECT().Read(gomock.Any()).Return(0, errors.New("read error"))
			n, err := errorReader.Read(make([]byte, 5))

			Expect(err).To(MatchError("read error"))
			Expect(n).To(Equal(0))
			Expect(errorReader.TransferredSize()).To(Equal(int64(0)))
		}, NodeTimeout(10*time.Second))
	})

	Describe("SetRateLimit", func() {
		It("should throttle reads to the configured rate", func(ctx context.Context) {
			limited := iometer.NewTransferReader(ctx, bytes.NewReader(make([]byte, 8)))
			limited.SetRateLimit(4)

			since := time.Now()
			data, err := io.ReadAll(limited)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveLen(8))
			Expect(time.Since(since)).To(BeNumerically("~", 2*time.Second, 700*time.Millisecond))
		}, NodeTimeout(10*time.Second))

		It("should stop waiting when the context is cancelled", func(ctx context.Context) {
			cancelCtx, cancel := context.WithCancel(ctx)
			limited := iometer.NewTransferReader(cancelCtx, bytes.NewReader(make([]byte, 8)))
			limited.SetRateLimit(1)
			cancel()

			_, err := limited.Read(make([]byte, 1))
			Expect(err).To(HaveOccurred())
		}, NodeTimeout(10*time.Second))

		It("should stop waiting when the bound context is cancelled", func(ctx context.Context) {
			limited := iometer.NewTransferReader(ctx, bytes.NewReader(make([]byte, 8)))
			limited.SetRateLimit(1)
			boundCtx, cancel := context.WithCancel(ctx)
			limited.BindContext(boundCtx)
			cancel()

			since := time.Now()
			_, err := limited.Read(make([]byte, 1))
			Expect(err).To(MatchError(context.Canceled))
			Expect(time.Since(since)).To(BeNumerically("<", 500*time.Millisecond))
		}, NodeTimeout(10*time.Second))

		It("should remove the limit for a non-positive rate", func(ctx context.Context) {
			transferReader.SetRateLimit(1)
			transferReader.SetRateLimit(0)
			data, err := io.ReadAll(transferReader)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("test data"))
		}, NodeTimeout(10*time.Second))
	})

	Describe("Close", func() {
		It("should close the underlying reader if it implements io.Closer", func(ctx context.Context) {
			closable := iometer.NewTransferReader(ctx, mockReadCloser)
			mockReadCloser.EXPECT().Close().Return(nil).Times(1)
			Expect(closable.Close()).To(Succeed())
			Expect(closable.Close()).To(Succeed())
		}, NodeTimeout(10*time.Second))

		It("should do nothing if the underlying reader doesn't implement io.Closer", func(ctx context.Context) {
			Expect(transferReader.Close()).To(Succeed())
		}, NodeTimeout(10*time.Second))
	})
})
