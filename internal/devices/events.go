package devices

// Event topics published by the devices module.
const (
	TopicDeviceCreated = "devices.device.created"
	TopicDeviceDeleted = "devices.device.deleted"
)

// DeviceEvent is the payload for device lifecycle topics.
type DeviceEvent struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name,omitempty"`
}

// GetDeviceID lets subscribers read the id without importing this package.
func (e DeviceEvent) GetDeviceID() string { return e.DeviceID }
