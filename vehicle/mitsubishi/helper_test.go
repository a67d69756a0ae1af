package mitsubishi

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/evcc-io/ownerportal/util"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const testBase = "https://portal.example.com/"

// tokenServer fakes the auth/v1/token endpoint
type tokenServer struct {
	mu       sync.Mutex
	logins   int
	refreshs int

	loginResponse   string
	refreshResponse string
}

func (s *tokenServer) responder(t *testing.T) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		var data map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&data))

		s.mu.Lock()
		defer s.mu.Unlock()

		switch data["grant_type"] {
		case "password":
			s.logins++
			require.Equal(t, "user@example.com", data["username"])
			require.Equal(t, "secret", data["password"])
			return httpmock.NewStringResponse(http.StatusOK, s.loginResponse), nil
		case "refresh_token":
			s.refreshs++
			require.Equal(t, "rt", data["refresh_token"])
			return httpmock.NewStringResponse(http.StatusOK, s.refreshResponse), nil
		}

		t.Fatalf("unexpected grant: %v", data)
		return nil, nil
	}
}

func (s *tokenServer) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins, s.refreshs
}

// memStore is an in-memory credential store
type memStore struct {
	creds Credentials
	saves int
}

func (s *memStore) Load() (Credentials, error) {
	return s.creds, nil
}

func (s *memStore) Save(creds Credentials) error {
	s.creds = creds
	s.saves++
	return nil
}

func newTestIdentity(t *testing.T, store Store) (*Identity, *tokenServer, *clock.Mock) {
	t.Helper()

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	ts := &tokenServer{
		loginResponse:   `{"access_token":"at","refresh_token":"rt","accountDN":"uid-1","expires_in":1800}`,
		refreshResponse: `{"access_token":"at2","refresh_token":"rt"}`,
	}
	httpmock.RegisterResponder(http.MethodPost, testBase+"auth/v1/token", ts.responder(t))

	clck := clock.NewMock()

	identity := NewIdentity(util.NewLogger("test"), testBase, "user@example.com", "secret", store)
	identity.clock = clck

	return identity, ts, clck
}

func newTestAPI(t *testing.T) (*API, *tokenServer, *clock.Mock) {
	t.Helper()

	identity, ts, clck := newTestIdentity(t, nil)
	v := NewAPI(util.NewLogger("test"), identity, false)

	v.SubmitDelay = 0
	v.SettleDelay = 0
	v.PollDelay = 0

	return v, ts, clck
}
