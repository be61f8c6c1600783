package s3

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/brianvoe/gofakeit/v7"
	s3protoc "github.com/derektruong/s3put/protoc/s3"
	"github.com/derektruong/s3put/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/testcontainers/testcontainers-go/network"
)

var _ = Describe("Uploader against MinIO", Ordered, Label("integration"), func() {
	var (
		bucketName  = "test-bucket"
		awsS3Client *awss3.Client
		uploader    *Uploader
	)

	BeforeAll(func() {
		if os.Getenv("S3PUT_SKIP_CONTAINERS") == "1" {
			Skip("container tests disabled")
		}

		By("setup docker network")
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		DeferCleanup(cancel)

		net, err := network.New(ctx)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(net.Remove, context.Background())

		By("setup minio container")
		minioMetadata, err := setupMinIOContainer(ctx, net.Name)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() {
			if minioMetadata.Container != nil {
				Expect(minioMetadata.Container.Terminate(context.Background())).To(Succeed())
			}
		})

		By("setup s3 client")
		endpoint := "http://" + strings.Replace(minioMetadata.Endpoint, "localhost", "127.0.0.1", 1)
		protocS3Client := s3protoc.NewClient(endpoint, "us-east-1", minioMetadata.AccessKey, minioMetadata.SecretKey)
		var ok bool
		awsS3Client, ok = protocS3Client.GetS3API().(*awss3.Client)
		Expect(ok).To(BeTrue())
		_, err = awsS3Client.CreateBucket(ctx, &awss3.CreateBucketInput{
			Bucket: aws.String(bucketName),
		})
		Expect(err).ToNot(HaveOccurred())

		uploader = uploaderFactory(protocS3Client, nil)
	})

	readObject := func(ctx context.Context, key string) (*awss3.GetObjectOutput, []byte) {
		GinkgoHelper()
		obj, err := awsS3Client.GetObject(ctx, &awss3.GetObjectInput{
			Bucket: aws.String(bucketName),
			Key:    aws.String(key),
		})
		Expect(err).ToNot(HaveOccurred())
		defer obj.Body.Close()
		body, err := io.ReadAll(obj.Body)
		Expect(err).ToNot(HaveOccurred())
		return obj, body
	}

	It("should store a small object with its content type", func(ctx context.Context) {
		content := []byte(gofakeit.Paragraph(3, 4, 12, "\n"))
		key := "site/" + gofakeit.LetterN(8) + ".html"

		out, err := uploader.Upload(ctx, storage.UploadInput{
			Bucket:      bucketName,
			Key:         key,
			Body:        bytes.NewReader(content),
			Size:        int64(len(content)),
			ContentType: "text/html",
		}, storage.TransferOptions{PartSize: 5 * 1024 * 1024, Concurrency: 1})
		Expect(err).ToNot(HaveOccurred())
		Expect(out.Location).To(HaveSuffix("/" + bucketName + "/" + key))
		Expect(out.BytesTransferred).To(Equal(int64(len(content))))

		head, err := awsS3Client.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(bucketName),
			Key:    aws.String(key),
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(aws.ToString(head.ContentType)).To(Equal("text/html"))

		_, body := readObject(ctx, key)
		Expect(body).To(Equal(content))
	}, NodeTimeout(30*time.Second))

	It("should store a multipart object", func(ctx context.Context) {
		partSize := int64(5 * 1024 * 1024)
		content := []byte(gofakeit.LetterN(uint(2*partSize + 1024)))
		key := "archive/" + gofakeit.LetterN(8) + ".tar"

		out, err := uploader.Upload(ctx, storage.UploadInput{
			Bucket: bucketName,
			Key:    key,
			Body:   bytes.NewReader(content),
			Size:   int64(len(content)),
			ACL:    "private",
		}, storage.TransferOptions{PartSize: partSize, Concurrency: 1})
		Expect(err).ToNot(HaveOccurred())
		Expect(out.PartCount).To(Equal(3))
		Expect(out.UploadID).ToNot(BeEmpty())

		obj, body := readObject(ctx, key)
		Expect(aws.ToInt64(obj.ContentLength)).To(Equal(int64(len(content))))
		Expect(body).To(Equal(content))
	}, NodeTimeout(60*time.Second))
})
