package vehicle

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/evcc-io/ownerportal/api"
	"github.com/evcc-io/ownerportal/core/storage"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
)

// Mitsubishi is an api.Vehicle implementation for Mitsubishi cars
type Mitsubishi struct {
	*embed
	*mitsubishi.Provider // provides the api implementations
	api                  *mitsubishi.API
	vehicle              mitsubishi.Vehicle
}

func init() {
	registry.Add("mitsubishi", NewMitsubishiFromConfig)
}

type mitsubishiConfig struct {
	embed                    `mapstructure:",squash"`
	API, User, Password, VIN string
	Insecure                 bool
	Interval, Cache          time.Duration
}

// sessions are shared between all vehicles of an account
var (
	accountsMu sync.Mutex
	accounts   = make(map[string]*mitsubishi.API)
)

func decodeMitsubishi(other map[string]interface{}) (mitsubishiConfig, error) {
	cc := mitsubishiConfig{
		API:      mitsubishi.DefaultAPI,
		Interval: time.Minute,
	}

	if err := util.DecodeOther(other, &cc); err != nil {
		return cc, err
	}

	if cc.User == "" || cc.Password == "" {
		return cc, api.ErrMissingCredentials
	}

	// refresh cached values on every poll
	if cc.Cache == 0 {
		cc.Cache = cc.Interval / 2
	}
	if cc.Cache <= 0 {
		cc.Cache = interval
	}

	if !strings.HasSuffix(cc.API, "/") {
		cc.API += "/"
	}

	return cc, nil
}

// mitsubishiAccount returns the logged in api of the configured account
func mitsubishiAccount(cc mitsubishiConfig) (*mitsubishi.API, error) {
	accountsMu.Lock()
	defer accountsMu.Unlock()

	key := cc.API + cc.User
	if v, ok := accounts[key]; ok {
		return v, nil
	}

	log := util.NewLogger("mitsubishi").Redact(cc.User, cc.Password)
	if cc.Insecure {
		log.WARN.Printf("tls certificate verification disabled for %s", cc.API)
	}

	identity := mitsubishi.NewIdentity(log, cc.API, cc.User, cc.Password, storage.Account(cc.User))
	if cc.Insecure {
		identity.Insecure()
	}

	if err := identity.CheckToken(); err != nil {
		return nil, err
	}

	v := mitsubishi.NewAPI(log, identity, cc.Insecure)
	accounts[key] = v

	return v, nil
}

func newMitsubishi(cc mitsubishiConfig, api *mitsubishi.API, vehicle mitsubishi.Vehicle) *Mitsubishi {
	log := util.NewLogger("mitsubishi").Redact(vehicle.VIN)

	embed := cc.embed
	if embed.Title_ == "" {
		embed.Title_ = vehicle.DeviceName()
	}

	return &Mitsubishi{
		embed:    &embed,
		Provider: mitsubishi.NewProvider(log, api, vehicle.VIN, cc.Cache),
		api:      api,
		vehicle:  vehicle,
	}
}

func mitsubishiVIN(v mitsubishi.Vehicle) string {
	return v.VIN
}

// NewMitsubishiFromConfig creates a new vehicle for the configured VIN or the only vehicle of the account
func NewMitsubishiFromConfig(other map[string]interface{}) (api.Vehicle, error) {
	cc, err := decodeMitsubishi(other)
	if err != nil {
		return nil, err
	}

	api, err := mitsubishiAccount(cc)
	if err != nil {
		return nil, err
	}

	_, vehicle, err := ensureVehicleEx(cc.VIN, api.Vehicles, mitsubishiVIN)
	if err != nil {
		return nil, err
	}

	return newMitsubishi(cc, api, vehicle), nil
}

// NewMitsubishiAccountFromConfig creates vehicles for all vehicles of the account, or only the configured VIN
func NewMitsubishiAccountFromConfig(other map[string]interface{}) ([]*Mitsubishi, error) {
	cc, err := decodeMitsubishi(other)
	if err != nil {
		return nil, err
	}

	api, err := mitsubishiAccount(cc)
	if err != nil {
		return nil, err
	}

	if cc.VIN != "" {
		_, vehicle, err := ensureVehicleEx(cc.VIN, api.Vehicles, mitsubishiVIN)
		if err != nil {
			return nil, err
		}

		return []*Mitsubishi{newMitsubishi(cc, api, vehicle)}, nil
	}

	vehicles, err := api.Vehicles()
	if err != nil {
		return nil, err
	}

	var res []*Mitsubishi
	for _, vehicle := range vehicles {
		if vehicle.VIN == "" {
			continue
		}
		res = append(res, newMitsubishi(cc, api, vehicle))
	}

	if len(res) == 0 {
		return nil, errors.New("no vehicles found")
	}

	return res, nil
}

// Info returns the vehicle as listed by the account
func (v *Mitsubishi) Info() mitsubishi.Vehicle {
	return v.vehicle
}

// VIN returns the vehicle identification number
func (v *Mitsubishi) VIN() string {
	return v.vehicle.VIN
}

// UID returns the account's user id
func (v *Mitsubishi) UID() string {
	return v.api.Identity().UID()
}
