package api

import (
	"time"
)

// Vehicle represents the EV and its battery
type Vehicle interface {
	Battery
	Title() string
	Identifiers() []string
}

// Battery provides battery charging information
type Battery interface {
	Soc() (float64, error)
}

// VehicleRange provides the vehicle remaining electric range
type VehicleRange interface {
	Range() (int64, error)
}

// VehicleOdometer returns the vehicle's odometer
type VehicleOdometer interface {
	Odometer() (float64, error)
}

// VehiclePosition returns the vehicles position in latitude and longitude
type VehiclePosition interface {
	Position() (float64, float64, error)
}

// VehicleFinishTimer provides estimated charge cycle finish time
type VehicleFinishTimer interface {
	FinishTime() (time.Time, error)
}

// Resurrector provides wakeup calls to the vehicle with an API call or a CAN BUS message
type Resurrector interface {
	WakeUp() error
}
