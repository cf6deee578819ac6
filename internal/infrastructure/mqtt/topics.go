package mqtt

import "fmt"

// Topic prefixes for the Marketcore MQTT hierarchy.
//
// Validated sensor readings flow to per-device stream topics:
// datastreams/{device_type}/{device_address}/reading. System-level topics
// live under marketcore/system.
const (
	// TopicPrefixStreams is the base for device data-stream topics.
	TopicPrefixStreams = "datastreams"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "marketcore/system"
)

// Topics provides builders for Marketcore MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceReading("weather_station", "0xabc...")
//	// Returns: "datastreams/weather_station/0xabc.../reading"
type Topics struct{}

// DeviceReading returns the topic for validated readings from one device.
//
// Example: datastreams/gps_tracker/0x1a2b.../reading
func (Topics) DeviceReading(deviceType, address string) string {
	return fmt.Sprintf("%s/%s/%s/reading", TopicPrefixStreams, deviceType, address)
}

// DeviceStream returns the wildcard topic matching all readings for a
// device type.
//
// Example: datastreams/weather_station/+/reading
func (Topics) DeviceStream(deviceType string) string {
	return fmt.Sprintf("%s/%s/+/reading", TopicPrefixStreams, deviceType)
}

// SystemStatus returns the topic for service online/offline status.
//
// Example: marketcore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
