package protocutils_test

import (
	"github.com/derektruong/s3put/internal/protocutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Builder", func() {
	DescribeTable("BuildEndpoint",
		func(endpoint, expected string) {
			Expect(protocutils.BuildEndpoint(endpoint)).To(Equal(expected))
		},
		Entry("should keep an endpoint with a scheme", "http://127.0.0.1:9000", "http://127.0.0.1:9000"),
		Entry("should add https when the scheme is missing", "s3.example.com", "https://s3.example.com"),
		Entry("should keep the port when adding the scheme", "minio:9000", "https://minio:9000"),
		Entry("should trim trailing slashes", "https://s3.example.com//", "https://s3.example.com"),
		Entry("should trim surrounding whitespace", "  http://minio:9000 ", "http://minio:9000"),
		Entry("should return an empty string if the endpoint is empty", "", ""),
	)
})
