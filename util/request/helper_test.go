package request

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evcc-io/ownerportal/util"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://example.com/ok",
		httpmock.NewStringResponder(http.StatusOK, `{"message":"hello"}`))

	httpmock.RegisterResponder(http.MethodGet, "https://example.com/denied",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"message":"Unauthorized"}`))

	helper := NewHelper(util.NewLogger("test"))

	var res struct {
		Message string `json:"message"`
	}

	require.NoError(t, helper.GetJSON("https://example.com/ok", &res))
	assert.Equal(t, "hello", res.Message)

	err := helper.GetJSON("https://example.com/denied", &res)
	require.Error(t, err)
	assert.True(t, HasStatus(err, http.StatusUnauthorized))
	assert.False(t, HasStatus(err, http.StatusNotFound))
	assert.Equal(t, "Unauthorized", res.Message)
}

func TestDoBody(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://example.com/echo",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json;charset=UTF-8", req.Header.Get("Content-Type"))
			return httpmock.NewStringResponse(http.StatusOK, "pong"), nil
		})

	helper := NewHelper(util.NewLogger("test"))

	req, err := New(http.MethodPost, "https://example.com/echo", MarshalJSON(map[string]string{"ping": "pong"}), JSONEncoding)
	require.NoError(t, err)

	body, err := helper.DoBody(req)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestRedact(t *testing.T) {
	tc := []struct {
		in, out string
	}{
		{`{"grant_type":"password","password":"secret","username":"user"}`, `{"grant_type":"password","password":"***","username":"user"}`},
		{`{"refresh_token":"abc"}`, `{"refresh_token":"***"}`},
		{`password=secret&user=foo`, `password=***&user=foo`},
		{`nothing to hide`, `nothing to hide`},
	}

	for _, tc := range tc {
		assert.Equal(t, tc.out, Redact(tc.in, sensitive...), tc.in)
	}
}

func TestCertificateError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":"hello"}`)
	}))
	defer srv.Close()

	helper := NewHelper(util.NewLogger("test"))

	var res struct {
		Message string `json:"message"`
	}

	err := helper.GetJSON(srv.URL, &res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCertificate), err)

	var cerr *CertificateError
	require.True(t, errors.As(err, &cerr))
	assert.NotNil(t, certificateError(cerr.Err))

	helper.Insecure()
	require.NoError(t, helper.GetJSON(srv.URL, &res))
	assert.Equal(t, "hello", res.Message)
}

func TestConnectionErrorIsNoCertificateError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	uri := srv.URL
	srv.Close()

	err := NewHelper(util.NewLogger("test")).GetJSON(uri, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCertificate))
}
