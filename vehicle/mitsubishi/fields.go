package mitsubishi

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evcc-io/ownerportal/util"
	"github.com/spf13/cast"
	"github.com/thoas/go-funk"
)

// ErrInvalidResponse indicates a vehicle state without the expected structure
var ErrInvalidResponse = errors.New("invalid response")

// Fields is the flattened vehicle state keyed by sensor key.
// Missing numbers and timestamps are nil, missing states are "unknown".
type Fields map[string]interface{}

// Copy returns a shallow copy
func (f Fields) Copy() Fields {
	res := make(Fields, len(f))
	for k, v := range f {
		res[k] = v
	}
	return res
}

const (
	KeyBattery                = "Battery"
	KeyChargingStatus         = "Charging_Status"
	KeyChargingMode           = "Charging_Mode"
	KeyChargingPlugStatus     = "Charging_Plug_Status"
	KeyChargingReady          = "Charging_Ready"
	KeyTimeToFullCharge       = "Time_To_Full_Charge"
	KeyEventTimestamp         = "Event_Timestamp"
	KeyCruisingRangeCombined  = "Cruising_Range_Combined"
	KeyCruisingRangeGasoline  = "Cruising_Range_Gasoline"
	KeyCruisingRangeElectric  = "Cruising_Range_Electric"
	KeyIgnitionState          = "Ignition_State"
	KeyIgnitionStateTimestamp = "Ignition_State_Timestamp"
	KeyOdometer               = "Odometer"
	KeyOdometerTimestamp      = "Odometer_Timestamp"
	KeyLocationLatitude       = "Location_Latitude"
	KeyLocationLongitude      = "Location_Longitude"
	KeyLocationTimestamp      = "Location_Timestamp"
	KeyTheftAlarm             = "Theft_Alarm"
	KeyTheftAlarmType         = "Theft_Alarm_Type"
	KeyPrivacyMode            = "Privacy_Mode"
	KeyTemperature            = "Temperature"
	KeyAccessible             = "Accessible"
	KeyDoorStatus             = "Door_Status"
	KeyDiagnostic             = "Diagnostic"
)

const (
	unknown = "unknown"

	engineGasoline = "4"
	engineElectric = "5"

	odometerLayout = "2006-01-02 15:04:05"

	// larger timestamps are milliseconds
	millisThreshold = 10000000000
)

type object = map[string]interface{}

// ParseFields flattens the vehicle state response
func ParseFields(log *util.Logger, res StateResponse) (Fields, error) {
	state := res.State
	if len(state) == 0 {
		return nil, fmt.Errorf("%w: missing state", ErrInvalidResponse)
	}

	cc, _ := state["chargingControl"].(object)
	if len(cc) == 0 {
		return nil, fmt.Errorf("%w: missing chargingControl", ErrInvalidResponse)
	}

	keys := funk.Keys(cc).([]string)
	sort.Strings(keys)
	log.TRACE.Printf("chargingControl keys: %v", keys)

	loc, _ := state["extLocMap"].(object)

	odo, odoTs := odometer(state["odo"])

	combined, hasCombined := number(cc["cruisingRangeCombined"])
	if !hasCombined {
		combined, hasCombined = number(cc["availRange"])
		if avail, ok := cc["availRange"].(object); !hasCombined && ok {
			combined, hasCombined = number(avail["value"])
		}
		log.DEBUG.Printf("using availRange as combined range: %v", opt(combined, hasCombined))
	}

	gasoline, hasGasoline := rangeFromList(cc["cruisingRangeFirst"], engineGasoline)
	if !hasGasoline {
		gasoline, hasGasoline = rangeFromObject(cc["cruisingRangeFirst"], "range_2")
	}

	electric, hasElectric := rangeFromList(cc["cruisingRangeSecond"], engineElectric)
	if !hasElectric {
		electric, hasElectric = rangeFromObject(cc["cruisingRangeSecond"], "range_3")
	}

	log.DEBUG.Printf("cruising range: combined=%v, gasoline=%v, electric=%v", opt(combined, hasCombined), opt(gasoline, hasGasoline), opt(electric, hasElectric))
	if !hasElectric {
		log.WARN.Printf("electric range missing, cruisingRangeSecond: %v", cc["cruisingRangeSecond"])
	}

	// phev gasoline range cannot significantly exceed the combined range
	if hasCombined && combined != 0 && hasElectric && electric != 0 {
		if calc := combined - electric; !hasGasoline || gasoline > 2*combined {
			log.DEBUG.Printf("gasoline range %v implausible, using combined - electric = %v", opt(gasoline, hasGasoline), calc)
			gasoline, hasGasoline = calc, calc > 0
		}
	}

	return Fields{
		KeyBattery:            opt(number(cc["hvBatteryLife"])),
		KeyChargingStatus:     orUnknown(cc["hvChargingStatus"]),
		KeyChargingMode:       orUnknown(cc["hvChargingMode"]),
		KeyChargingPlugStatus: orUnknown(cc["hvChargingPlugStatus"]),
		KeyChargingReady:      orUnknown(cc["hvChargingReady"]),
		KeyTimeToFullCharge:   opt(number(cc["hvTimeToFullCharge"])),
		KeyEventTimestamp:     optTime(timestamp(cc["eventTimestamp"])),

		KeyCruisingRangeCombined: opt(combined, hasCombined),
		KeyCruisingRangeGasoline: opt(gasoline, hasGasoline),
		KeyCruisingRangeElectric: opt(electric, hasElectric),

		KeyIgnitionState:          orUnknown(state["ignitionState"]),
		KeyIgnitionStateTimestamp: optTime(timestamp(state["ignitionStateTs"])),
		KeyOdometer:               odo,
		KeyOdometerTimestamp:      odoTs,

		KeyLocationLatitude:  opt(number(loc["lat"])),
		KeyLocationLongitude: opt(number(loc["lon"])),
		KeyLocationTimestamp: optTime(timestamp(loc["ts"])),

		KeyTheftAlarm:     orUnknown(state["theftAlarm"]),
		KeyTheftAlarmType: orUnknown(state["theftAlarmType"]),
		KeyPrivacyMode:    orUnknown(state["privacy"]),
		KeyTemperature:    opt(number(state["temp"])),
		KeyAccessible:     orUnknown(state["accessible"]),

		KeyDoorStatus: orUnknown(state["ods"]),
		KeyDiagnostic: orUnknown(state["diagnostic"]),
	}, nil
}

func opt(f float64, ok bool) interface{} {
	if !ok {
		return nil
	}
	return f
}

func optTime(ts time.Time, ok bool) interface{} {
	if !ok {
		return nil
	}
	return ts
}

// number converts numeric values and numeric strings. NaN and Inf are absent.
func number(v interface{}) (float64, bool) {
	var f float64
	var err error

	switch val := v.(type) {
	case nil, bool, object, []interface{}:
		return 0, false

	case string:
		s := strings.TrimSpace(val)
		if s == "" || s == unknown {
			return 0, false
		}
		f, err = strconv.ParseFloat(s, 64)

	default:
		f, err = cast.ToFloat64E(val)
	}

	return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// timestamp converts integer unix timestamps in seconds or milliseconds
func timestamp(v interface{}) (time.Time, bool) {
	var s string

	switch val := v.(type) {
	case string:
		s = strings.TrimSpace(val)
	case float64:
		if val < 0 || val != math.Trunc(val) {
			return time.Time{}, false
		}
		s = strconv.FormatFloat(val, 'f', 0, 64)
	default:
		s = cast.ToString(v)
	}

	if s == "" || strings.Trim(s, "0123456789") != "" {
		return time.Time{}, false
	}

	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	if ts > millisThreshold {
		return time.UnixMilli(ts).UTC(), true
	}

	return time.Unix(ts, 0).UTC(), true
}

// truthy mirrors the api's notion of a present value
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case object:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	default:
		return true
	}
}

func orUnknown(v interface{}) interface{} {
	if !truthy(v) {
		return unknown
	}
	return v
}

// odometer returns value and timestamp of the latest entry of [{"2024-01-01 10:00:00": "12345"}, ...].
// The entry holds a single reading. Should it hold several, the most recent date wins,
// since object key order is not preserved by decoding.
func odometer(v interface{}) (interface{}, interface{}) {
	list, _ := v.([]interface{})
	if len(list) == 0 {
		return nil, nil
	}

	entry, _ := list[len(list)-1].(object)
	if len(entry) == 0 {
		return nil, nil
	}

	keys := funk.Keys(entry).([]string)
	sort.Strings(keys)
	key := keys[len(keys)-1]

	var ts interface{}
	if t, err := time.Parse(odometerLayout, key); err == nil {
		ts = t.UTC()
	}

	return opt(number(entry[key])), ts
}

// rangeFromList parses [{"range": "46"}, {"engineType": "5"}].
// The range is accepted if the engine type matches or is absent.
func rangeFromList(v interface{}, engineType string) (float64, bool) {
	list, _ := v.([]interface{})

	var rng, engine interface{}
	for _, item := range list {
		m, ok := item.(object)
		if !ok {
			continue
		}
		if r, ok := m["range"]; ok {
			rng = r
		}
		if e, ok := m["engineType"]; ok {
			engine = e
		}
	}

	if truthy(rng) && (engine == nil || cast.ToString(engine) == engineType) {
		return number(rng)
	}

	return 0, false
}

// rangeFromObject parses {"cruisingRange": [{"range_3": {"value": "46"}}]}
func rangeFromObject(v interface{}, key string) (float64, bool) {
	m, ok := v.(object)
	if !ok {
		return 0, false
	}

	list, _ := m["cruisingRange"].([]interface{})

	var res float64
	var found bool

	for _, item := range list {
		im, ok := item.(object)
		if !ok {
			continue
		}

		data, ok := im[key]
		if !ok {
			data = im["range"]
		}

		if dm, ok := data.(object); ok {
			if res, found = number(dm["value"]); found && res != 0 {
				break
			}
		}
	}

	return res, found
}
