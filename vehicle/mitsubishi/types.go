package mitsubishi

import (
	"encoding/json"
	"time"

	"github.com/evcc-io/ownerportal/util/oauth"
)

// TokenResponse is the auth/v1/token response for both password and refresh_token grants
type TokenResponse struct {
	oauth.Token
	AccountDN string
	Message   string
}

func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	var s struct {
		AccountDN string `json:"accountDN"`
		Message   string `json:"message"`
	}

	err := json.Unmarshal(data, &s)
	if err == nil {
		err = json.Unmarshal(data, &t.Token)
	}

	t.AccountDN = s.AccountDN
	t.Message = s.Message

	return err
}

// Vehicle is an entry of the user/v1/users/{uid}/vehicles response
type Vehicle struct {
	VIN              string `json:"vin"`
	Model            string `json:"model"`
	ModelDescription string `json:"modelDescription"`
}

// DeviceName is the model description with the last four VIN digits appended
func (v Vehicle) DeviceName() string {
	suffix := v.VIN
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}

	if suffix == "" {
		return v.ModelDescription
	}

	return v.ModelDescription + " (" + suffix + ")"
}

type VehiclesResponse struct {
	Vehicles []Vehicle `json:"vehicles"`
	Message  string    `json:"message"`
}

// StateResponse is the avi/v1/vehicles/{vin}/vehiclestate response.
// The state structure varies between vehicles and firmware and is parsed leniently.
type StateResponse struct {
	State   map[string]interface{} `json:"state"`
	Message string                 `json:"message"`
}

type RemoteOperationRequest struct {
	Forced    string `json:"forced"`
	Operation string `json:"operation"`
	UserAgent string `json:"userAgent"`
	VIN       string `json:"vin"`
}

type EventResponse struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Credentials is the persisted session state of an account
type Credentials struct {
	UID              string
	AccessToken      string
	TokenTime        time.Time
	RefreshToken     string
	RefreshTokenTime time.Time
}

func (c Credentials) missing() bool {
	return c.UID == "" || c.AccessToken == "" || c.TokenTime.IsZero() ||
		c.RefreshToken == "" || c.RefreshTokenTime.IsZero()
}

// Store persists credentials between restarts
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
}
