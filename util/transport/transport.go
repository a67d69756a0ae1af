package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Default returns an http.DefaultTransport clone with tuned timeouts
func Default() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Insecure returns an http.Transport that skips TLS certificate verification
func Insecure() *http.Transport {
	t := Default()
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return t
}

// Decorator decorates an http.Request before handing it to the base transport
type Decorator struct {
	Decorator func(req *http.Request) error
	Base      http.RoundTripper
}

// DecorateHeaders returns a decorator function that adds the given headers unless already set
func DecorateHeaders(headers map[string]string) func(req *http.Request) error {
	return func(req *http.Request) error {
		for k, v := range headers {
			if req.Header.Get(k) == "" {
				req.Header.Set(k, v)
			}
		}
		return nil
	}
}

// RoundTrip executes a single HTTP transaction
func (t *Decorator) RoundTrip(req *http.Request) (*http.Response, error) {
	// the request must not be modified in place
	req2 := req.Clone(req.Context())

	if t.Decorator != nil {
		if err := t.Decorator(req2); err != nil {
			if req.Body != nil {
				req.Body.Close()
			}
			return nil, err
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req2)
}
