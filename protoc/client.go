package protoc

//go:generate mockgen -destination=mock/mock_client.go -package=mock_protoc . Client,S3API

// Client represents the client used to connect to the object storage.
type Client interface {
	// GetS3API returns the S3 API.
	//
	// Returns:
	//   - S3API: the S3 API
	GetS3API() S3API

	// GetConnectionID returns the connection ID.
	//
	// Returns:
	//   - string: the connection ID
	GetConnectionID() string

	// GetCredential returns the credential used to connect to the storage.
	//
	// Returns:
	//   - any: the credential, it must be asserted to the correct type
	GetCredential() any
}
