package server

import (
	"github.com/evcc-io/ownerportal/util"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes numeric vehicle params as prometheus gauges
type Metrics struct {
	sensor *prometheus.GaugeVec
}

// NewMetrics creates the sensor gauge and registers it with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sensor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ownerportal",
			Name:      "sensor",
			Help:      "Numeric vehicle sensor values",
		}, []string{"vin", "key"}),
	}

	if err := reg.Register(m.sensor); err != nil {
		return nil, err
	}

	return m, nil
}

// Run updates the gauges until the channel is closed
func (m *Metrics) Run(in <-chan util.Param) {
	for p := range in {
		if p.Vehicle == "" {
			continue
		}

		switch val := p.Val.(type) {
		case float64:
			m.sensor.WithLabelValues(p.Vehicle, p.Key).Set(val)
		case nil:
			m.sensor.DeleteLabelValues(p.Vehicle, p.Key)
		}
	}
}
