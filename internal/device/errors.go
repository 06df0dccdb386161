package device

import "errors"

var (
	// ErrDeviceNotFound is returned when a device ID or external ID does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrExternalIDExists is returned when an external device ID is already registered.
	ErrExternalIDExists = errors.New("external device id already exists")

	// ErrInvalidName is returned when a device name fails validation.
	ErrInvalidName = errors.New("invalid device name")

	// ErrInvalidExternalID is returned when an external device ID is malformed.
	ErrInvalidExternalID = errors.New("invalid external device id")

	// ErrInvalidDeviceType is returned when a device type is not recognised.
	ErrInvalidDeviceType = errors.New("invalid device type")

	// ErrInvalidStatus is returned when a device status is not recognised.
	ErrInvalidStatus = errors.New("invalid device status")
)
