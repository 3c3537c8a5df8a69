package mqtt

import "fmt"

// Topic prefixes for the irhvac MQTT surface.
//
// The topic scheme is flat: irhvac/{category}/{device_id}[/{field}].
// State topics are published retained so late subscribers see the
// latest snapshot without waiting for a change.
const (
	// TopicPrefix is the base for all irhvac topics.
	TopicPrefix = "irhvac"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "irhvac/system"
)

// Topics provides builders for irhvac MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("3")
//	// Returns: "irhvac/state/3"
type Topics struct{}

// DeviceState returns the retained state topic for a device.
//
// Example: irhvac/state/3
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the topic for full JSON commands to a device.
// Payloads use the same schema as the telnet command line.
//
// Example: irhvac/cmd/3
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/cmd/%s", TopicPrefix, deviceID)
}

// DeviceButton returns the topic for single-action keypad presses.
//
// Example: irhvac/button/3
func (Topics) DeviceButton(deviceID string) string {
	return fmt.Sprintf("%s/button/%s", TopicPrefix, deviceID)
}

// DeviceSensor returns the topic for ambient temperature readings
// feeding a device's current_temp.
//
// Example: irhvac/sensor/3/current_temp
func (Topics) DeviceSensor(deviceID string) string {
	return fmt.Sprintf("%s/sensor/%s/current_temp", TopicPrefix, deviceID)
}

// SystemStatus returns the system status topic. Used for the broker
// LWT and the retained online/offline flag.
//
// Example: irhvac/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceCommands returns a pattern matching command topics for
// every device.
//
// Pattern: irhvac/cmd/+
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/cmd/+", TopicPrefix)
}

// AllDeviceButtons returns a pattern matching button topics for every
// device.
//
// Pattern: irhvac/button/+
func (Topics) AllDeviceButtons() string {
	return fmt.Sprintf("%s/button/+", TopicPrefix)
}

// AllDeviceSensors returns a pattern matching sensor feeds for every
// device.
//
// Pattern: irhvac/sensor/+/current_temp
func (Topics) AllDeviceSensors() string {
	return fmt.Sprintf("%s/sensor/+/current_temp", TopicPrefix)
}
