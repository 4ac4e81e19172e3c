// Package ble provides the BLE session to a precision cooker. It owns the
// single exclusive link to the appliance, serializes command/response
// exchanges over its one characteristic and tears the link down when idle.
package ble

import "context"

// Cooker BLE UUIDs. The appliance exposes one vendor service (0xFFE0) with a
// single writable/notifiable characteristic (0xFFE1) used for all traffic.
const (
	ServiceUUID = "0000ffe0-0000-1000-8000-00805f9b34fb"
	CharUUID    = "0000ffe1-0000-1000-8000-00805f9b34fb"
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name string
	MAC  string
	RSSI int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals advertising the given service UUID.
	// Returns discovered devices until ctx is cancelled or timeout.
	Scan(ctx context.Context, serviceUUID string) ([]Device, error)
	// Connect establishes a connection to the device with the given MAC address.
	Connect(ctx context.Context, mac string) (Connection, error)
}
