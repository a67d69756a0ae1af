package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// URLEncoding specifies application/x-www-form-urlencoded
	URLEncoding = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

	// JSONEncoding specifies application/json
	JSONEncoding = map[string]string{
		"Content-Type": "application/json;charset=UTF-8",
		"Accept":       "application/json, text/plain, */*",
	}

	// AcceptJSON accepting application/json
	AcceptJSON = map[string]string{"Accept": "application/json"}
)

// StatusError indicates unsuccessful http response
type StatusError struct {
	resp *http.Response
}

// NewStatusError create new StatusError for given response
func NewStatusError(resp *http.Response) *StatusError {
	return &StatusError{resp: resp}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d (%s) %s", e.resp.StatusCode, http.StatusText(e.resp.StatusCode), e.resp.Request.URL.String())
}

// Response returns the response with the unexpected error
func (e *StatusError) Response() *http.Response {
	return e.resp
}

// StatusCode returns the response's status code
func (e *StatusError) StatusCode() int {
	return e.resp.StatusCode
}

// HasStatus returns true if the response's status code matches any of the given codes
func (e *StatusError) HasStatus(codes ...int) bool {
	for _, code := range codes {
		if e.resp.StatusCode == code {
			return true
		}
	}
	return false
}

// HasStatus checks if err is a StatusError with one of the given codes
func HasStatus(err error, codes ...int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.HasStatus(codes...)
}

// ResponseError turns an HTTP status code into an error
func ResponseError(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewStatusError(resp)
	}
	return nil
}

// ReadBody reads HTTP response and returns error on response codes other than HTTP 2xx. It closes the request body after reading.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	return b, ResponseError(resp)
}

// decodeJSON reads HTTP response and decodes JSON body if error is nil
func decodeJSON(resp *http.Response, res interface{}) error {
	if err := ResponseError(resp); err != nil {
		// decode the error body if possible, so callers can inspect api messages
		_ = json.NewDecoder(resp.Body).Decode(&res)
		return err
	}

	return json.NewDecoder(resp.Body).Decode(&res)
}

// New builds and executes HTTP request and returns the response
func New(method, uri string, data io.Reader, headers ...map[string]string) (*http.Request, error) {
	req, err := http.NewRequest(method, uri, data)
	if err == nil {
		for _, headers := range headers {
			for k, v := range headers {
				req.Header.Add(k, v)
			}
		}
	}

	return req, err
}

// MarshalJSON marshals JSON into an io.Reader
func MarshalJSON(data interface{}) io.Reader {
	if data == nil {
		return nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return &errorReader{err: err}
	}

	return bytes.NewReader(b)
}

type errorReader struct {
	err error
}

func (r *errorReader) Read(p []byte) (int, error) {
	return 0, r.err
}

// Redact replaces the values of sensitive JSON or form keys in a dump for logging
func Redact(s string, keys ...string) string {
	for _, key := range keys {
		for _, sep := range []string{`"` + key + `":"`, key + "="} {
			start := strings.Index(s, sep)
			if start < 0 {
				continue
			}
			start += len(sep)

			end := strings.IndexAny(s[start:], `"&`)
			if end < 0 {
				end = len(s) - start
			}

			s = s[:start] + "***" + s[start+end:]
		}
	}

	return s
}
