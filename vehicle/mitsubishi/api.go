package mitsubishi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/util/request"
	"github.com/evcc-io/ownerportal/util/transport"
	"github.com/thoas/go-funk"
	"golang.org/x/oauth2"
)

const msgUnauthorized = "Unauthorized"

// ErrUnauthorized indicates that the api kept rejecting the session after a fresh login
var ErrUnauthorized = errors.New("unauthorized")

// API is the owner portal vehicle api
type API struct {
	*request.Helper
	log      *util.Logger
	identity *Identity

	// remote operation timing
	SubmitAttempts uint
	SubmitDelay    time.Duration
	SettleDelay    time.Duration
	PollAttempts   uint
	PollDelay      time.Duration
}

// NewAPI creates a new api client authenticated by identity
func NewAPI(log *util.Logger, identity *Identity, insecure bool) *API {
	v := &API{
		Helper:         request.NewHelper(log),
		log:            log,
		identity:       identity,
		SubmitAttempts: 3,
		SubmitDelay:    5 * time.Second,
		SettleDelay:    3 * time.Second,
		PollAttempts:   5,
		PollDelay:      5 * time.Second,
	}

	if insecure {
		v.Helper.Insecure()
	}

	v.Client.Transport = &transport.Decorator{
		Decorator: transport.DecorateHeaders(request.JSONEncoding),
		Base: &oauth2.Transport{
			Source: identity,
			Base:   v.Client.Transport,
		},
	}

	return v
}

// Identity returns the session of the api
func (v *API) Identity() *Identity {
	return v.identity
}

func unauthorized(msg string, err error) bool {
	return msg == msgUnauthorized || request.HasStatus(err, http.StatusUnauthorized)
}

// authorized executes fn and repeats it once after a fresh login if the api rejected the session.
// fn returns the api message of the response.
func (v *API) authorized(fn func() (string, error)) error {
	msg, err := fn()
	if !unauthorized(msg, err) {
		return err
	}

	v.log.DEBUG.Println("session rejected, performing login")
	if err := v.identity.Login(); err != nil {
		return err
	}

	if msg, err = fn(); err == nil && msg == msgUnauthorized {
		err = ErrUnauthorized
	}

	return err
}

// Vehicles returns the account's vehicles
func (v *API) Vehicles() ([]Vehicle, error) {
	if err := v.identity.CheckToken(); err != nil {
		return nil, err
	}

	var res VehiclesResponse
	err := v.authorized(func() (string, error) {
		res = VehiclesResponse{}
		uri := v.identity.URL(fmt.Sprintf("user/v1/users/%s/vehicles", v.identity.UID()))
		err := v.GetJSON(uri, &res)
		return res.Message, err
	})

	if err == nil && len(res.Vehicles) == 0 {
		v.log.WARN.Printf("no vehicles found: %s", res.Message)
	}

	return res.Vehicles, err
}

// VehicleState returns the raw vehicle state
func (v *API) VehicleState(vin string) (StateResponse, error) {
	if err := v.identity.CheckToken(); err != nil {
		return StateResponse{}, err
	}

	uri := v.identity.URL(fmt.Sprintf("avi/v1/vehicles/%s/vehiclestate", vin))

	get := func() (StateResponse, error) {
		var res StateResponse
		err := v.GetJSON(uri, &res)
		return res, err
	}

	res, err := get()
	if err != nil || len(res.State) == 0 {
		v.log.WARN.Printf("vehicle state for %s failed (%v), message: %q", vin, err, res.Message)

		if err := v.identity.Login(); err != nil {
			return res, err
		}

		res, err = get()
	}

	if err == nil {
		keys := funk.Keys(res.State).([]string)
		sort.Strings(keys)
		v.log.DEBUG.Printf("vehicle state keys: %v", keys)
	}

	return res, err
}
