package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes. Devices publish readings under the device prefix and
// the service announces itself under the system prefix.
const (
	// TopicPrefix is the base for all Hearth topics.
	TopicPrefix = "hearth"

	// TopicPrefixDevice is the base for device telemetry topics.
	TopicPrefixDevice = "hearth/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "hearth/system"
)

// Topics provides builders for Hearth MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
type Topics struct{}

// DeviceData returns the topic a device publishes readings on.
//
// Example: hearth/device/temp-01/data
func (Topics) DeviceData(externalID string) string {
	return fmt.Sprintf("%s/%s/data", TopicPrefixDevice, externalID)
}

// AllDeviceData returns a pattern matching every device reading topic.
//
// Pattern: hearth/device/+/data
func (Topics) AllDeviceData() string {
	return fmt.Sprintf("%s/+/data", TopicPrefixDevice)
}

// DeviceState returns the topic the service publishes canonical device
// state on after processing a reading.
//
// Example: hearth/device/temp-01/state
func (Topics) DeviceState(externalID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, externalID)
}

// SystemStatus returns the service status topic used for the online
// announcement and the Last Will message.
//
// Example: hearth/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// DeviceDataExternalID extracts the external device ID from a reading
// topic. Returns "" when the topic is not a device data topic.
func DeviceDataExternalID(topic string) string {
	rest, ok := strings.CutPrefix(topic, TopicPrefixDevice+"/")
	if !ok {
		return ""
	}
	externalID, ok := strings.CutSuffix(rest, "/data")
	if !ok || externalID == "" || strings.Contains(externalID, "/") {
		return ""
	}
	return externalID
}
