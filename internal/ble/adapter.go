// Package ble provides the Bluetooth Low Energy abstraction used to talk to a
// TimeFlip activity cube. It defines the adapter, connection and
// characteristic interfaces the session layer depends on, and the GATT
// identifiers the cube exposes.
package ble

import "context"

// TimeFlip BLE UUIDs. Sizes and access modes are from the TimeFlip v3
// protocol description.
const (
	ServiceUUID = "f1196f50-71a4-11e6-bdf4-0800200c9a66"

	AccelDataCharUUID          = "f1196f51-71a4-11e6-bdf4-0800200c9a66" //  6 bytes, R
	FacetsCharUUID             = "f1196f52-71a4-11e6-bdf4-0800200c9a66" //  1 byte,  R/N
	CommandResultCharUUID      = "f1196f53-71a4-11e6-bdf4-0800200c9a66" // 21 bytes, R
	CommandCharUUID            = "f1196f54-71a4-11e6-bdf4-0800200c9a66" // 21 bytes, R/W
	DoubleTapCharUUID          = "f1196f55-71a4-11e6-bdf4-0800200c9a66" //  1 byte,  N
	CalibrationVersionCharUUID = "f1196f56-71a4-11e6-bdf4-0800200c9a66" //  4 bytes, R/W
	PasswordCharUUID           = "f1196f57-71a4-11e6-bdf4-0800200c9a66" //  6 bytes, W
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Read returns the current value of the characteristic.
	Read() ([]byte, error)
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
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
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
