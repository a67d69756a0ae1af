package server

import (
	"fmt"
	"time"

	"github.com/evcc-io/ownerportal/util"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// InfluxConfig is the influx database configuration
type InfluxConfig struct {
	URL      string
	Database string
	Token    string
	Org      string
	User     string
	Password string
}

// Influx is a influx publisher
type Influx struct {
	log      *util.Logger
	client   influxdb2.Client
	org      string
	database string
}

// NewInfluxClient creates new publisher for influx
func NewInfluxClient(conf InfluxConfig) (*Influx, error) {
	log := util.NewLogger("influx").Redact(conf.Token, conf.User, conf.Password)

	if conf.Database == "" {
		return nil, fmt.Errorf("missing database")
	}

	// v1 compatibility
	token := conf.Token
	if token == "" && conf.User != "" {
		token = fmt.Sprintf("%s:%s", conf.User, conf.Password)
	}

	options := influxdb2.DefaultOptions().SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(conf.URL, token, options)

	return &Influx{
		log:      log,
		client:   client,
		org:      conf.Org,
		database: conf.Database,
	}, nil
}

// point converts numeric vehicle params to points, other values are skipped
func point(p util.Param, ts time.Time) *write.Point {
	if p.Vehicle == "" {
		return nil
	}

	val, ok := p.Val.(float64)
	if !ok {
		return nil
	}

	tags := map[string]string{"vin": p.Vehicle}
	fields := map[string]interface{}{p.Key: val}

	return influxdb2.NewPoint("vehicle", tags, fields, ts)
}

// Run Influx publisher
func (m *Influx) Run(in <-chan util.Param) {
	writer := m.client.WriteAPI(m.org, m.database)

	// log errors
	go func() {
		for err := range writer.Errors() {
			m.log.ERROR.Println(err)
		}
	}()

	for param := range in {
		if p := point(param, time.Now()); p != nil {
			m.log.TRACE.Printf("write %s=%v", param.UniqueID(), param.Val)
			writer.WritePoint(p)
		}
	}

	writer.Flush()
	m.client.Close()
}
