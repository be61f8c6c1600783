package protocutils

import (
	"fmt"
	"strings"
)

const defaultScheme = "https"

// BuildEndpoint builds the base URL of a service from endpoint. The default
// scheme is used when endpoint has none, trailing slashes are removed.
func BuildEndpoint(endpoint string) (url string) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return
	}
	url = strings.TrimRight(endpoint, "/")
	if !strings.Contains(url, "://") {
		url = fmt.Sprintf("%s://%s", defaultScheme, url)
	}
	return
}
