package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/evcc-io/ownerportal/core/coordinator"
	"github.com/evcc-io/ownerportal/core/sensor"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
)

// Vehicle is a polled vehicle of an owner portal account
type Vehicle interface {
	coordinator.Source
	Title() string
	Info() mitsubishi.Vehicle
	Refresh(ctx context.Context) error
}

// Device bundles a vehicle with its coordinator and sensors
type Device struct {
	Vehicle     Vehicle
	Coordinator *coordinator.Coordinator
	Entities    []*sensor.Entity
}

// Site manages all configured vehicles
type Site struct {
	log      *util.Logger
	interval time.Duration

	mu      sync.Mutex
	devices []*Device
}

// NewSite creates a site polling at interval
func NewSite(interval time.Duration) *Site {
	return &Site{
		log:      util.NewLogger("site"),
		interval: interval,
	}
}

// Add creates the coordinator and sensors of a vehicle. The first refresh must succeed.
func (s *Site) Add(v Vehicle, interval time.Duration) (*Device, error) {
	if interval <= 0 {
		interval = s.interval
	}

	if _, ok := s.Device(v.VIN()); ok {
		return nil, fmt.Errorf("duplicate vehicle: %s", v.VIN())
	}

	c := coordinator.New(util.NewLogger("coordinator"), v, interval)
	if err := c.FirstRefresh(); err != nil {
		return nil, err
	}

	dev := &Device{
		Vehicle:     v,
		Coordinator: c,
		Entities:    sensor.NewEntities(v.Info(), c),
	}

	s.mu.Lock()
	s.devices = append(s.devices, dev)
	s.mu.Unlock()

	s.log.INFO.Printf("vehicle %s: %s", c.Name(), v.Title())

	return dev, nil
}

// Devices returns all vehicles
func (s *Site) Devices() []*Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Device(nil), s.devices...)
}

// Device returns the vehicle with the given VIN
func (s *Site) Device(vin string) (*Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dev := range s.devices {
		if strings.EqualFold(dev.Vehicle.VIN(), vin) {
			return dev, true
		}
	}

	return nil, false
}

// Entities returns the sensors of all vehicles
func (s *Site) Entities() []*sensor.Entity {
	var res []*sensor.Entity
	for _, dev := range s.Devices() {
		res = append(res, dev.Entities...)
	}
	return res
}

// Refresh triggers a remote status update of the vehicle and refreshes its coordinator
func (s *Site) Refresh(ctx context.Context, vin string) error {
	dev, ok := s.Device(vin)
	if !ok {
		return fmt.Errorf("vehicle not found: %s", vin)
	}

	if err := dev.Vehicle.Refresh(ctx); err != nil {
		return err
	}

	return dev.Coordinator.Refresh()
}

// Prepare attaches the output channel to all coordinators
func (s *Site) Prepare(uiChan chan<- util.Param) {
	for _, dev := range s.Devices() {
		dev.Coordinator.Prepare(uiChan)
	}
}

// Healthy returns an error if any vehicle has not been refreshed recently
func (s *Site) Healthy() error {
	devices := s.Devices()
	if len(devices) == 0 {
		return errors.New("no vehicles")
	}

	for _, dev := range devices {
		if err := dev.Coordinator.Healthy(); err != nil {
			return fmt.Errorf("%s: %w", dev.Coordinator.Name(), err)
		}
	}

	return nil
}

// Run polls all vehicles until stopC is closed
func (s *Site) Run(stopC <-chan struct{}) {
	var wg sync.WaitGroup

	for _, dev := range s.Devices() {
		wg.Add(1)
		go func(c *coordinator.Coordinator) {
			defer wg.Done()
			c.Run(stopC)
		}(dev.Coordinator)
	}

	wg.Wait()
}
