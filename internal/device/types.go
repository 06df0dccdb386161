package device

import "time"

// Device types recognised by the inventory.
const (
	TypeTemperatureSensor = "temperature_sensor"
	TypeHumiditySensor    = "humidity_sensor"
	TypeLight             = "light"
	TypeAirConditioner    = "air_conditioner"
	TypeHeater            = "heater"
	TypeTV                = "tv"
	TypeCurtain           = "curtain"
	TypeSocket            = "socket"
	TypeOther             = "other"
)

var deviceTypes = map[string]bool{
	TypeTemperatureSensor: true,
	TypeHumiditySensor:    true,
	TypeLight:             true,
	TypeAirConditioner:    true,
	TypeHeater:            true,
	TypeTV:                true,
	TypeCurtain:           true,
	TypeSocket:            true,
	TypeOther:             true,
}

// ValidDeviceType reports whether s is a recognised device type.
func ValidDeviceType(s string) bool {
	return deviceTypes[s]
}

// Device statuses. A device is either switched on or off; sensors that
// have no switchable state stay "on" while commissioned.
const (
	StatusOn  = "on"
	StatusOff = "off"
)

// ValidStatus reports whether s is a recognised device status.
func ValidStatus(s string) bool {
	return s == StatusOn || s == StatusOff
}

// Device represents a sensor or appliance tracked by the system.
// ExternalID is the identifier the device publishes under on MQTT and
// is unique across the site.
type Device struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name"`
	DeviceType string     `json:"device_type"`
	RoomID     *string    `json:"room_id,omitempty"`
	Status     string     `json:"status"`
	LastValue  *float64   `json:"last_value,omitempty"`
	Online     bool       `json:"online"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Reading is a single timestamped value reported by a device.
type Reading struct {
	ID         int64     `json:"id"`
	DeviceID   string    `json:"device_id"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
