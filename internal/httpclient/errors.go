package httpclient

import "fmt"

// HTTPError is returned for a non-2xx status once retries are exhausted
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d, body: %s", e.StatusCode, e.Body)
}

// NewHTTPError creates a new HTTPError, truncating the body to 512 bytes
func NewHTTPError(statusCode int, body []byte) *HTTPError {
	if len(body) > 512 {
		body = body[:512]
	}
	return &HTTPError{StatusCode: statusCode, Body: string(body)}
}
