package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/evcc-io/ownerportal/api"
	"github.com/evcc-io/ownerportal/core"
	"github.com/evcc-io/ownerportal/core/storage"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/vehicle"
)

// configureEnvironment applies log levels and opens the credential database
func configureEnvironment(conf config) error {
	if conf.Log != "" {
		util.LogLevel(conf.Log, conf.Levels)
	}

	file := conf.Database
	if file == "" {
		file = filepath.Join(home(), ".ownerportal.db")
	}

	if err := storage.Open(file); err != nil {
		return fmt.Errorf("failed configuring database: %w", err)
	}

	log.DEBUG.Printf("using credential database %s", file)

	return nil
}

// vehicleType is the registered type of owner portal vehicles
const vehicleType = "mitsubishi"

// accountVehicles creates the configured vehicle of the account or, without vin, all of its vehicles
func accountVehicles(acc account) ([]*vehicle.Mitsubishi, error) {
	var res []*vehicle.Mitsubishi
	var err error

	if acc.VIN != "" {
		var v api.Vehicle
		if v, err = vehicle.NewFromConfig(vehicleType, acc.vehicleConfig()); err == nil {
			if m, ok := v.(*vehicle.Mitsubishi); ok {
				res = append(res, m)
			} else {
				err = fmt.Errorf("unexpected vehicle type: %T", v)
			}
		}
	} else {
		res, err = vehicle.NewMitsubishiAccountFromConfig(acc.vehicleConfig())
	}

	if err != nil {
		return nil, fmt.Errorf("cannot create vehicles of account %s: %w", acc.User, err)
	}

	return res, nil
}

// configureVehicles creates the vehicles of all accounts
func configureVehicles(conf config) ([]*vehicle.Mitsubishi, error) {
	accounts, err := conf.accounts()
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}

	var res []*vehicle.Mitsubishi
	for _, acc := range accounts {
		vehicles, err := accountVehicles(acc)
		if err != nil {
			return nil, err
		}

		res = append(res, vehicles...)
	}

	return res, nil
}

// configureSite creates the coordinators of all vehicles. Each first refresh must succeed.
func configureSite(conf config) (*core.Site, error) {
	accounts, err := conf.accounts()
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}

	site := core.NewSite(conf.Interval)

	for _, acc := range accounts {
		vehicles, err := accountVehicles(acc)
		if err != nil {
			return nil, err
		}

		for _, v := range vehicles {
			if _, err := site.Add(v, acc.Interval); err != nil {
				return nil, err
			}
		}
	}

	return site, nil
}
