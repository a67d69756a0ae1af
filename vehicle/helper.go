package vehicle

import (
	"fmt"
	"strings"
)

// ensureVehicleEx ensures that the vehicle is available on the api and returns the VIN and the vehicle.
// Without a configured VIN the account must contain exactly one vehicle.
func ensureVehicleEx[T any](
	vin string,
	list func() ([]T, error),
	extract func(T) string,
) (string, T, error) {
	var zero T

	vehicles, err := list()
	if err != nil {
		return "", zero, fmt.Errorf("cannot get vehicles: %w", err)
	}

	if vin = strings.ToUpper(strings.TrimSpace(vin)); vin != "" {
		// vin defined but doesn't exist
		for _, vehicle := range vehicles {
			if strings.ToUpper(extract(vehicle)) == vin {
				return extract(vehicle), vehicle, nil
			}
		}

		return "", zero, fmt.Errorf("cannot find vehicle: %s", vin)
	}

	// vin empty
	if len(vehicles) == 1 {
		if vin := strings.TrimSpace(extract(vehicles[0])); vin != "" {
			return vin, vehicles[0], nil
		}
	}

	vins := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		vins = append(vins, extract(vehicle))
	}

	return "", zero, fmt.Errorf("cannot find vehicle: %v", vins)
}
