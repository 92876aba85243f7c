package stream

import (
	"net"
	"net/http"
	"time"
)

// DefaultDialTimeout bounds TCP connection setup for the stream request.
const DefaultDialTimeout = 10 * time.Second

// HTTPClient abstracts HTTP request execution for testing and custom
// transports. The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a client suited to a long-lived event stream: only
// connection setup is bounded, the response body may idle indefinitely.
func NewHTTPClient(dialTimeout time.Duration) *http.Client {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = dialTimeout
	transport.ResponseHeaderTimeout = 0

	// Timeout stays zero: it would cap the whole body read.
	return &http.Client{Transport: transport}
}
