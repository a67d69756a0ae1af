package sensor

import (
	"fmt"

	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
)

const (
	Domain       = "ownerportal"
	Manufacturer = "Mitsubishi"
)

// Description describes a vehicle sensor
type Description struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Unit        string `json:"unit,omitempty"`
	DeviceClass string `json:"deviceClass,omitempty"`
	StateClass  string `json:"stateClass,omitempty"`
}

// Descriptions are the sensors created for every vehicle
var Descriptions = []Description{
	{Key: mitsubishi.KeyBattery, Name: "Current Battery Level", Unit: "%", DeviceClass: "battery", StateClass: "measurement"},
	{Key: mitsubishi.KeyChargingStatus, Name: "Charging Status", DeviceClass: "enum"},
	{Key: mitsubishi.KeyChargingPlugStatus, Name: "Charging Plug Status", DeviceClass: "enum"},
	{Key: mitsubishi.KeyChargingMode, Name: "Charging Mode", DeviceClass: "enum"},
	{Key: mitsubishi.KeyChargingReady, Name: "Charging Ready", DeviceClass: "enum"},
	{Key: mitsubishi.KeyIgnitionState, Name: "Ignition State", DeviceClass: "enum"},
	{Key: mitsubishi.KeyTimeToFullCharge, Name: "Time To Full Charge", Unit: "min", DeviceClass: "duration"},
	{Key: mitsubishi.KeyEventTimestamp, Name: "Event Timestamp"},
	{Key: mitsubishi.KeyCruisingRangeElectric, Name: "Electric Range", Unit: "km", DeviceClass: "distance", StateClass: "measurement"},
	{Key: mitsubishi.KeyCruisingRangeCombined, Name: "Combined Range", Unit: "km", DeviceClass: "distance", StateClass: "measurement"},
	{Key: mitsubishi.KeyOdometer, Name: "Odometer", Unit: "km", DeviceClass: "distance", StateClass: "total_increasing"},
	{Key: mitsubishi.KeyTemperature, Name: "Temperature", Unit: "°C", DeviceClass: "temperature", StateClass: "measurement"},
}

// Lookup returns the description of key
func Lookup(key string) (Description, bool) {
	for _, d := range Descriptions {
		if d.Key == key {
			return d, true
		}
	}
	return Description{}, false
}

// DeviceInfo identifies the vehicle an entity belongs to
type DeviceInfo struct {
	Identifiers  [][2]string `json:"identifiers"`
	Manufacturer string      `json:"manufacturer"`
	Model        string      `json:"model"`
	Name         string      `json:"name"`
}

// Source provides the coordinator data of a vehicle
type Source interface {
	Value(key string) (interface{}, bool)
	Available() bool
}

// Entity is a single sensor of a vehicle
type Entity struct {
	Description
	vehicle mitsubishi.Vehicle
	source  Source
}

// NewEntities creates all sensors of a vehicle
func NewEntities(vehicle mitsubishi.Vehicle, source Source) []*Entity {
	res := make([]*Entity, 0, len(Descriptions))
	for _, d := range Descriptions {
		res = append(res, &Entity{
			Description: d,
			vehicle:     vehicle,
			source:      source,
		})
	}
	return res
}

// VIN returns the vehicle identification number
func (e *Entity) VIN() string {
	return e.vehicle.VIN
}

// UniqueID is the VIN with the sensor key appended
func (e *Entity) UniqueID() string {
	return fmt.Sprintf("%s_%s", e.vehicle.VIN, e.Key)
}

// Name is the vehicle model with the sensor name appended
func (e *Entity) Name() string {
	return fmt.Sprintf("%s %s", e.vehicle.Model, e.Description.Name)
}

// Value returns the current sensor value
func (e *Entity) Value() interface{} {
	val, _ := e.source.Value(e.Key)
	return val
}

// Available returns true if the vehicle data is current
func (e *Entity) Available() bool {
	return e.source.Available()
}

// Device returns the device info of the vehicle
func (e *Entity) Device() DeviceInfo {
	return DeviceInfo{
		Identifiers:  [][2]string{{Domain, e.vehicle.VIN}},
		Manufacturer: Manufacturer,
		Model:        e.vehicle.Model,
		Name:         e.vehicle.DeviceName(),
	}
}

// State is the serializable sensor state
type State struct {
	UniqueID  string      `json:"uniqueId"`
	Name      string      `json:"name"`
	Value     interface{} `json:"value"`
	Unit      string      `json:"unit,omitempty"`
	Available bool        `json:"available"`
}

// State returns the serializable sensor state
func (e *Entity) State() State {
	return State{
		UniqueID:  e.UniqueID(),
		Name:      e.Name(),
		Value:     e.Value(),
		Unit:      e.Unit,
		Available: e.Available(),
	}
}
