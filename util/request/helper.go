package request

import (
	"context"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/util/transport"
)

// Timeout is the default request timeout used by the Helper
var Timeout = 30 * time.Second

// sensitive keys are redacted from request dumps
var sensitive = []string{"password", "refresh_token", "access_token"}

// Helper provides utility primitives
type Helper struct {
	*http.Client
	log *util.Logger
}

// NewHelper creates http helper for simplified PUT GET logic
func NewHelper(log *util.Logger) *Helper {
	r := &Helper{
		Client: &http.Client{
			Timeout:   Timeout,
			Transport: &roundTripper{log: log},
		},
		log: log,
	}

	return r
}

// Insecure replaces the helper's base transport with one that skips certificate verification
func (r *Helper) Insecure() {
	if rt, ok := r.Client.Transport.(*roundTripper); ok {
		rt.base = transport.Insecure()
	}
}

// DoBody executes HTTP request and returns the response body
func (r *Helper) DoBody(req *http.Request) ([]byte, error) {
	resp, err := r.Do(req)
	if err != nil {
		return nil, err
	}

	return ReadBody(resp)
}

// GetBody executes HTTP GET request and returns the response body
func (r *Helper) GetBody(url string) ([]byte, error) {
	resp, err := r.Get(url)
	if err != nil {
		return nil, err
	}

	return ReadBody(resp)
}

// DoJSON executes HTTP request and decodes JSON response.
// The body of unsuccessful responses is decoded into res on a best effort basis.
func (r *Helper) DoJSON(req *http.Request, res interface{}) error {
	resp, err := r.Do(req)
	if err == nil {
		defer resp.Body.Close()
		err = decodeJSON(resp, &res)
	}

	return err
}

// GetJSON executes HTTP GET request and decodes JSON response.
func (r *Helper) GetJSON(url string, res interface{}) error {
	req, err := New(http.MethodGet, url, nil, AcceptJSON)
	if err == nil {
		err = r.DoJSON(req, &res)
	}

	return err
}

// DoJSONContext is DoJSON bound to the given context
func (r *Helper) DoJSONContext(ctx context.Context, req *http.Request, res interface{}) error {
	return r.DoJSON(req.WithContext(ctx), res)
}

// roundTripper logs requests and responses at trace level.
// A nil base uses http.DefaultTransport.
type roundTripper struct {
	log  *util.Logger
	base http.RoundTripper
}

func (r *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if r.log != nil {
		if body, err := httputil.DumpRequestOut(req, true); err == nil {
			r.log.TRACE.Println(Redact(strings.TrimSpace(string(body)), sensitive...))
		}
	}

	base := r.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)

	if err != nil {
		if cerr := certificateError(err); cerr != nil {
			err = &CertificateError{Err: err}
			if r.log != nil {
				r.log.ERROR.Printf("%s %s: %T: %v", req.Method, req.URL.Redacted(), cerr, err)
			}
		} else if r.log != nil {
			r.log.WARN.Printf("%s %s: %T", req.Method, req.URL.Redacted(), err)
		}
	}

	if r.log != nil && resp != nil {
		if body, err := httputil.DumpResponse(resp, true); err == nil {
			r.log.TRACE.Println(Redact(strings.TrimSpace(string(body)), sensitive...))
		}
	}

	return resp, err
}
