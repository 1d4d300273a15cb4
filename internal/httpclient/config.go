package httpclient

import "time"

// DefaultUserAgent identifies outgoing requests
const DefaultUserAgent = "neveridle/1.0"

// HTTPClientConfig holds transport and request settings
type HTTPClientConfig struct {
	Timeout             time.Duration // Whole-request timeout, 0 for none
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	UserAgent           string
	Proxy               string // Empty uses the environment proxy settings
	EnableHTTP2         bool
}

// DefaultHTTPClientConfig returns the default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		UserAgent:           DefaultUserAgent,
		EnableHTTP2:         true,
	}
}
