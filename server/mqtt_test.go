package server

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/evcc-io/ownerportal/core/sensor"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	payload  string
	retained bool
}

type broker struct {
	mu  sync.Mutex
	msg map[string]message
}

func (b *broker) publish(topic string, retained bool, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.msg[topic] = message{payload, retained}
	return nil
}

func newTestMQTT() (*MQTT, *broker) {
	b := &broker{msg: make(map[string]message)}

	conf := MqttConfig{}
	m := &MQTT{
		log:       util.NewLogger("test"),
		root:      conf.RootTopic(),
		discovery: conf.DiscoveryTopic(),
		publish:   b.publish,
	}

	return m, b
}

type values map[string]interface{}

func (v values) Value(key string) (interface{}, bool) {
	val, ok := v[key]
	return val, ok
}

func (v values) Available() bool {
	return true
}

func TestDiscover(t *testing.T) {
	m, b := newTestMQTT()

	vehicle := mitsubishi.Vehicle{VIN: "VIN0001", Model: "GN0W", ModelDescription: "Eclipse Cross PHEV"}
	entities := sensor.NewEntities(vehicle, values{})

	require.NoError(t, m.Discover(entities))
	assert.Len(t, b.msg, len(entities)+1)

	assert.Equal(t, message{"online", true}, b.msg["ownerportal/status"])

	msg, ok := b.msg["homeassistant/sensor/VIN0001_Battery/config"]
	require.True(t, ok)
	assert.True(t, msg.retained)

	var conf map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.payload), &conf))

	assert.Equal(t, "GN0W Current Battery Level", conf["name"])
	assert.Equal(t, "VIN0001_Battery", conf["unique_id"])
	assert.Equal(t, "ownerportal/VIN0001/Battery", conf["state_topic"])
	assert.Equal(t, "%", conf["unit_of_measurement"])
	assert.Equal(t, "battery", conf["device_class"])
	assert.Equal(t, map[string]interface{}{
		"identifiers":  []interface{}{"ownerportal_VIN0001"},
		"manufacturer": "Mitsubishi",
		"model":        "GN0W",
		"name":         "Eclipse Cross PHEV (0001)",
	}, conf["device"])
}

func TestMqttRun(t *testing.T) {
	m, b := newTestMQTT()

	ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	in := make(chan util.Param)
	go func() {
		in <- util.Param{Vehicle: "VIN0001", Key: mitsubishi.KeyBattery, Val: 63.5}
		in <- util.Param{Vehicle: "VIN0001", Key: mitsubishi.KeyChargingStatus, Val: "Charging"}
		in <- util.Param{Vehicle: "VIN0001", Key: mitsubishi.KeyEventTimestamp, Val: ts}
		in <- util.Param{Vehicle: "VIN0001", Key: mitsubishi.KeyTemperature, Val: nil}
		in <- util.Param{Key: "ignored", Val: 1.0}
		close(in)
	}()

	m.Run(in)

	assert.Equal(t, map[string]message{
		"ownerportal/VIN0001/Battery":         {"63.5", true},
		"ownerportal/VIN0001/Charging_Status": {"Charging", true},
		"ownerportal/VIN0001/Event_Timestamp": {"2023-11-14T22:13:20Z", true},
		"ownerportal/VIN0001/Temperature":     {"", true},
	}, b.msg)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "12345", encode(12345.0))
	assert.Equal(t, "true", encode(true))
	assert.Equal(t, `{"doors":"closed"}`, encode(map[string]interface{}{"doors": "closed"}))
	assert.Equal(t, "", encode(time.Time{}))
}

func TestMqttConfig(t *testing.T) {
	conf := MqttConfig{Topic: "cars/", Discovery: "ha"}
	assert.Equal(t, "cars", conf.RootTopic())
	assert.Equal(t, "ha", conf.DiscoveryTopic())
}
