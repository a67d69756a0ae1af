package vehicle

import (
	"errors"
	"net/http"
	"testing"

	"github.com/evcc-io/ownerportal/api"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://portal.example.com/"

func mockPortal(t *testing.T) {
	t.Helper()

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	t.Cleanup(func() {
		accountsMu.Lock()
		accounts = make(map[string]*mitsubishi.API)
		accountsMu.Unlock()
	})

	httpmock.RegisterResponder(http.MethodPost, testBase+"auth/v1/token",
		httpmock.NewStringResponder(http.StatusOK, `{"access_token":"at","refresh_token":"rt","accountDN":"uid-1","expires_in":1800}`))

	httpmock.RegisterResponder(http.MethodGet, testBase+"user/v1/users/uid-1/vehicles",
		httpmock.NewStringResponder(http.StatusOK, `{"vehicles":[
			{"vin":"VIN0001","model":"GN0W","modelDescription":"Eclipse Cross PHEV"},
			{"vin":"VIN0002","model":"GG3W","modelDescription":"Outlander PHEV"}
		]}`))
}

func config(vin string) map[string]interface{} {
	return map[string]interface{}{
		"api":      testBase,
		"user":     "user@example.com",
		"password": "secret",
		"vin":      vin,
		"interval": "1m",
	}
}

func TestNewFromConfigInvalid(t *testing.T) {
	_, err := NewFromConfig("foo", nil)
	assert.Error(t, err)

	_, err = NewFromConfig("mitsubishi", map[string]interface{}{"user": "user@example.com"})
	assert.True(t, errors.Is(err, api.ErrMissingCredentials))

	_, err = NewFromConfig("mitsubishi", map[string]interface{}{"foo": "bar"})
	assert.Error(t, err)
}

func TestNewMitsubishiFromConfig(t *testing.T) {
	mockPortal(t)

	v, err := NewFromConfig("Mitsubishi", config("vin0002"))
	require.NoError(t, err)

	assert.Equal(t, "Outlander PHEV (0002)", v.Title())

	m, ok := v.(*Mitsubishi)
	require.True(t, ok)
	assert.Equal(t, "VIN0002", m.VIN())
	assert.Equal(t, "GG3W", m.Info().Model)
	assert.Equal(t, "uid-1", m.UID())

	// multiple vehicles require a vin
	_, err = NewFromConfig("mitsubishi", config(""))
	assert.Error(t, err)
}

func TestNewMitsubishiAccountFromConfig(t *testing.T) {
	mockPortal(t)

	res, err := NewMitsubishiAccountFromConfig(config(""))
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "VIN0001", res[0].VIN())
	assert.Equal(t, "Eclipse Cross PHEV (0001)", res[0].Title())
	assert.Equal(t, "VIN0002", res[1].VIN())

	res, err = NewMitsubishiAccountFromConfig(config("VIN0001"))
	require.NoError(t, err)
	require.Len(t, res, 1)

	// session is shared
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["POST "+testBase+"auth/v1/token"])
}
