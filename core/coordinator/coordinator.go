package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/util/request"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ownerportal",
		Name:      "refresh_total",
		Help:      "Number of vehicle state refreshes",
	}, []string{"vin"})

	refreshFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ownerportal",
		Name:      "refresh_failures_total",
		Help:      "Number of failed vehicle state refreshes",
	}, []string{"vin"})
)

// Source provides the flattened state of a vehicle
type Source interface {
	UID() string
	VIN() string
	Fields() (mitsubishi.Fields, error)
}

// Coordinator polls a vehicle at a fixed interval and shares the result with its entities
type Coordinator struct {
	log      *util.Logger
	clock    clock.Clock
	source   Source
	name     string
	interval time.Duration
	health   *util.Waiter
	uiChan   chan<- util.Param

	mu        sync.Mutex
	data      mitsubishi.Fields
	available bool
	err       error
}

// New creates a coordinator named after account and vehicle
func New(log *util.Logger, source Source, interval time.Duration) *Coordinator {
	return &Coordinator{
		log:      log,
		clock:    clock.New(),
		source:   source,
		name:     fmt.Sprintf("ownerportal-%s-%s", source.UID(), source.VIN()),
		interval: interval,
		health:   util.NewWaiter(time.Minute + 2*interval),
	}
}

// Name returns the coordinator name
func (c *Coordinator) Name() string {
	return c.name
}

// VIN returns the vehicle identification number
func (c *Coordinator) VIN() string {
	return c.source.VIN()
}

// Prepare attaches the output channel. Each successful refresh publishes one param per field.
func (c *Coordinator) Prepare(uiChan chan<- util.Param) {
	c.uiChan = uiChan
}

func (c *Coordinator) publish(data mitsubishi.Fields) {
	if c.uiChan == nil {
		return
	}

	vin := c.source.VIN()
	for key, val := range data {
		c.uiChan <- util.Param{Vehicle: vin, Key: key, Val: val}
	}
}

// FirstRefresh performs the initial refresh which must succeed before the coordinator is used
func (c *Coordinator) FirstRefresh() error {
	if err := c.Refresh(); err != nil {
		return fmt.Errorf("%s: first refresh: %w", c.name, err)
	}
	return nil
}

// Refresh updates the vehicle data. Failures keep the previous data and mark the coordinator unavailable.
func (c *Coordinator) Refresh() error {
	vin := c.source.VIN()
	refreshTotal.WithLabelValues(vin).Inc()

	data, err := c.source.Fields()

	c.mu.Lock()
	c.err = err
	if err != nil {
		if c.available || errors.Is(err, request.ErrCertificate) {
			c.log.ERROR.Printf("%s: update failed: %v", c.name, err)
		} else {
			c.log.DEBUG.Printf("%s: update failed: %v", c.name, err)
		}
		c.available = false
	} else {
		if !c.available && c.data != nil {
			c.log.INFO.Printf("%s: update recovered", c.name)
		}
		c.data = data
		c.available = true
	}
	c.mu.Unlock()

	if err != nil {
		refreshFailures.WithLabelValues(vin).Inc()
		return err
	}

	c.log.DEBUG.Printf("%s: updated %d fields", c.name, len(data))
	c.health.Update()
	c.publish(data)

	return nil
}

// Run refreshes at the coordinator interval until stopC is closed
func (c *Coordinator) Run(stopC <-chan struct{}) {
	ticker := c.clock.Ticker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.Refresh()
		case <-stopC:
			return
		}
	}
}

// Data returns a copy of the last successfully retrieved fields
func (c *Coordinator) Data() mitsubishi.Fields {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		return nil
	}

	return c.data.Copy()
}

// Value returns a single field of the last successfully retrieved data
func (c *Coordinator) Value(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, ok := c.data[key]
	return val, ok
}

// Available returns true if the last refresh succeeded
func (c *Coordinator) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

// Err returns the error of the last refresh
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Healthy returns an error if no successful refresh happened recently
// or the portal certificate is rejected
func (c *Coordinator) Healthy() error {
	if err := c.Err(); errors.Is(err, request.ErrCertificate) {
		return err
	}
	return c.health.Healthy()
}
