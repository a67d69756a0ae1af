package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/evcc-io/ownerportal/core/sensor"
	"github.com/evcc-io/ownerportal/util"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// MqttConfig is the broker configuration
type MqttConfig struct {
	Broker    string
	User      string
	Password  string
	ClientID  string
	Topic     string
	Discovery string
}

// RootTopic returns the state topic prefix
func (c MqttConfig) RootTopic() string {
	if c.Topic == "" {
		return "ownerportal"
	}
	return strings.TrimRight(c.Topic, "/")
}

// DiscoveryTopic returns the Home Assistant discovery prefix
func (c MqttConfig) DiscoveryTopic() string {
	if c.Discovery == "" {
		return "homeassistant"
	}
	return strings.TrimRight(c.Discovery, "/")
}

const publishTimeout = 10 * time.Second

// MQTT publishes vehicle sensors with Home Assistant discovery
type MQTT struct {
	log       *util.Logger
	root      string
	discovery string
	publish   func(topic string, retained bool, payload string) error
}

// NewMQTT connects to the broker
func NewMQTT(conf MqttConfig) (*MQTT, error) {
	log := util.NewLogger("mqtt").Redact(conf.User, conf.Password)

	broker := conf.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	clientID := conf.ClientID
	if clientID == "" {
		clientID = "ownerportal-" + uuid.New().String()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetUsername(conf.User)
	opts.SetPassword(conf.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(publishTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.INFO.Printf("connected to %s", broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WARN.Printf("connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(publishTimeout) {
		log.WARN.Printf("connecting to %s: timeout, retrying in background", broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}

	m := &MQTT{
		log:       log,
		root:      conf.RootTopic(),
		discovery: conf.DiscoveryTopic(),
		publish: func(topic string, retained bool, payload string) error {
			token := client.Publish(topic, 1, retained, payload)
			if !token.WaitTimeout(publishTimeout) {
				return fmt.Errorf("publish %s: timeout", topic)
			}
			return token.Error()
		},
	}

	return m, nil
}

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Name         string   `json:"name"`
}

type discoveryConfig struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"unique_id"`
	StateTopic        string          `json:"state_topic"`
	AvailabilityTopic string          `json:"availability_topic"`
	Unit              string          `json:"unit_of_measurement,omitempty"`
	DeviceClass       string          `json:"device_class,omitempty"`
	StateClass        string          `json:"state_class,omitempty"`
	Device            discoveryDevice `json:"device"`
}

func (m *MQTT) stateTopic(vin, key string) string {
	return fmt.Sprintf("%s/%s/%s", m.root, vin, key)
}

func (m *MQTT) availabilityTopic() string {
	return m.root + "/status"
}

// Discover publishes retained Home Assistant discovery configs for all entities
func (m *MQTT) Discover(entities []*sensor.Entity) error {
	if err := m.publish(m.availabilityTopic(), true, "online"); err != nil {
		return err
	}

	for _, e := range entities {
		device := e.Device()

		ids := make([]string, 0, len(device.Identifiers))
		for _, id := range device.Identifiers {
			ids = append(ids, id[0]+"_"+id[1])
		}

		conf := discoveryConfig{
			Name:              e.Name(),
			UniqueID:          e.UniqueID(),
			StateTopic:        m.stateTopic(e.VIN(), e.Key),
			AvailabilityTopic: m.availabilityTopic(),
			Unit:              e.Unit,
			DeviceClass:       e.DeviceClass,
			StateClass:        e.StateClass,
			Device: discoveryDevice{
				Identifiers:  ids,
				Manufacturer: device.Manufacturer,
				Model:        device.Model,
				Name:         device.Name,
			},
		}

		b, err := json.Marshal(conf)
		if err != nil {
			return err
		}

		topic := fmt.Sprintf("%s/sensor/%s/config", m.discovery, e.UniqueID())
		if err := m.publish(topic, true, string(b)); err != nil {
			return err
		}

		m.log.DEBUG.Printf("discovery: %s", topic)
	}

	return nil
}

// encode converts sensor values to state payloads
func encode(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]interface{}, []interface{}:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return cast.ToString(val)
	}
}

// Run publishes the param values until the channel is closed
func (m *MQTT) Run(in <-chan util.Param) {
	for p := range in {
		if p.Vehicle == "" {
			continue
		}

		topic := m.stateTopic(p.Vehicle, p.Key)
		if err := m.publish(topic, true, encode(p.Val)); err != nil {
			m.log.ERROR.Printf("%s: %v", topic, err)
		}
	}
}
