package s3

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/metrics/smithyotelmetrics"
	"github.com/derektruong/s3put/protoc"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var connectionIDNamespace = uuid.MustParse("8676c88d-b3f7-44b2-b645-11c28d6bb4c8")

const (
	defaultRegion          = "us-east-1"
	defaultConnectTimeout  = 60 * time.Second
	defaultResponseTimeout = 300 * time.Second
)

// Client represents an S3-compatible storage client.
type Client struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`

	// ConnectTimeout bounds establishing a TCP connection, default = 60 seconds.
	ConnectTimeout time.Duration `json:"connectTimeout"`
	// ResponseTimeout bounds waiting for response headers once a request
	// body has been written, default = 300 seconds.
	ResponseTimeout time.Duration `json:"responseTimeout"`
}

// NewClient creates a new S3 client using path-style addressing.
func NewClient(endpoint, region, accessKey, secretKey string) (c *Client) {
	if region == "" {
		region = defaultRegion
	}
	c = &Client{
		Endpoint:        endpoint,
		Region:          region,
		AccessKey:       accessKey,
		SecretKey:       secretKey,
		ConnectTimeout:  defaultConnectTimeout,
		ResponseTimeout: defaultResponseTimeout,
	}
	return
}

// GetS3API builds the SDK client. Requests are signed with SigV4 and sent
// path-style. SDK retries are disabled, callers own the retry policy.
func (c Client) GetS3API() protoc.S3API {
	connectTimeout := c.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	responseTimeout := c.ResponseTimeout
	if responseTimeout <= 0 {
		responseTimeout = defaultResponseTimeout
	}
	httpClient := awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = connectTimeout
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tr.ResponseHeaderTimeout = responseTimeout
		})

	s3Options := awss3.Options{
		Region:       c.Region,
		BaseEndpoint: aws.String(c.Endpoint),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     c.AccessKey,
				SecretAccessKey: c.SecretKey,
			}, nil
		}),
		HTTPClient:    httpClient,
		Retryer:       aws.NopRetryer{},
		MeterProvider: smithyotelmetrics.Adapt(otel.GetMeterProvider()),
	}
	return awss3.New(s3Options)
}

func (c Client) GetCredential() any {
	return c
}

func (c Client) GetConnectionID() string {
	return uuid.NewSHA1(
		connectionIDNamespace,
		[]byte(fmt.Sprintf(
			"%s:%s:%s:%s",
			c.Endpoint, c.Region, c.AccessKey, c.SecretKey),
		),
	).String()
}

// ObjectURL returns the path-style location of an object.
func (c Client) ObjectURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.Endpoint, "/"), bucket, strings.TrimPrefix(key, "/"))
}
