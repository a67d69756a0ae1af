package mitsubishi

import (
	"context"
	"time"

	"github.com/evcc-io/ownerportal/api"
	"github.com/evcc-io/ownerportal/provider"
	"github.com/evcc-io/ownerportal/util"
)

// remoteTimeout bounds a complete remote operation including all retries
const remoteTimeout = 2 * time.Minute

// Provider is an api.Vehicle implementation for Mitsubishi cars
type Provider struct {
	api     *API
	vin     string
	fieldsG func() (Fields, error)
}

// NewProvider creates a vehicle state provider
func NewProvider(log *util.Logger, api *API, vin string, cache time.Duration) *Provider {
	impl := &Provider{
		api: api,
		vin: vin,
		fieldsG: provider.Cached(func() (Fields, error) {
			res, err := api.VehicleState(vin)
			if err != nil {
				return nil, err
			}
			return ParseFields(log, res)
		}, cache),
	}

	return impl
}

// Fields returns a copy of the flattened vehicle state
func (v *Provider) Fields() (Fields, error) {
	res, err := v.fieldsG()
	if err != nil {
		return nil, err
	}
	return res.Copy(), nil
}

func (v *Provider) float(key string) (float64, error) {
	res, err := v.fieldsG()
	if err != nil {
		return 0, err
	}

	if f, ok := res[key].(float64); ok {
		return f, nil
	}

	return 0, api.ErrNotAvailable
}

// Soc implements the api.Vehicle interface
func (v *Provider) Soc() (float64, error) {
	return v.float(KeyBattery)
}

var _ api.VehicleRange = (*Provider)(nil)

// Range implements the api.VehicleRange interface
func (v *Provider) Range() (int64, error) {
	f, err := v.float(KeyCruisingRangeElectric)
	return int64(f), err
}

var _ api.VehicleOdometer = (*Provider)(nil)

// Odometer implements the api.VehicleOdometer interface
func (v *Provider) Odometer() (float64, error) {
	return v.float(KeyOdometer)
}

var _ api.VehiclePosition = (*Provider)(nil)

// Position implements the api.VehiclePosition interface
func (v *Provider) Position() (float64, float64, error) {
	lat, err := v.float(KeyLocationLatitude)
	if err != nil {
		return 0, 0, err
	}

	lon, err := v.float(KeyLocationLongitude)
	return lat, lon, err
}

var _ api.VehicleFinishTimer = (*Provider)(nil)

// FinishTime implements the api.VehicleFinishTimer interface
func (v *Provider) FinishTime() (time.Time, error) {
	minutes, err := v.float(KeyTimeToFullCharge)
	if err != nil {
		return time.Time{}, err
	}

	return time.Now().Add(time.Duration(minutes) * time.Minute), nil
}

// Refresh triggers a remote status update of the vehicle and invalidates cached values on success
func (v *Provider) Refresh(ctx context.Context) error {
	err := v.api.RemoteOperation(ctx, v.vin)
	if err == nil {
		provider.ResetCached()
	}
	return err
}

var _ api.Resurrector = (*Provider)(nil)

// WakeUp implements the api.Resurrector interface
func (v *Provider) WakeUp() error {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	return v.Refresh(ctx)
}
