package ppp

// Event topics published by the ppp module.
const (
	TopicDeviceProbed    = "ppp.device.probed"
	TopicProfilesSynced  = "ppp.profiles.synced"
	TopicSecretsSynced   = "ppp.secrets.synced"
	TopicCustomerCreated = "ppp.customer.created"
	TopicSecretEnabled   = "ppp.secret.enabled"
	TopicSecretDisabled  = "ppp.secret.disabled"
)

// DeviceProbedEvent is the payload for TopicDeviceProbed.
type DeviceProbedEvent struct {
	DeviceID string `json:"device_id"`
	Identity string `json:"identity"`
}

// SyncedEvent is the payload for TopicProfilesSynced and TopicSecretsSynced.
type SyncedEvent struct {
	DeviceID     string `json:"device_id"`
	Count        int    `json:"count"`
	NewCustomers int    `json:"new_customers,omitempty"`
}

// CustomerCreatedEvent is the payload for TopicCustomerCreated.
type CustomerCreatedEvent struct {
	DeviceID   string `json:"device_id"`
	CustomerID string `json:"customer_id"`
	Username   string `json:"username"`
	Status     string `json:"status"`
}

// SecretToggledEvent is the payload for TopicSecretEnabled and
// TopicSecretDisabled.
type SecretToggledEvent struct {
	DeviceID       string `json:"device_id"`
	Name           string `json:"name"`
	SessionsClosed int    `json:"sessions_closed"`
}
