package device

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength       = 100
	maxExternalIDLength = 64
)

// External IDs are the identifiers devices publish under on MQTT, so
// they must be safe to embed in a topic segment.
var externalIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName checks if a device name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateExternalID checks if an external device ID is valid.
func ValidateExternalID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: external id cannot be empty", ErrInvalidExternalID)
	}
	if len(id) > maxExternalIDLength {
		return fmt.Errorf("%w: external id exceeds %d characters", ErrInvalidExternalID, maxExternalIDLength)
	}
	if !externalIDRegex.MatchString(id) {
		return fmt.Errorf("%w: external id must be alphanumeric with . _ -", ErrInvalidExternalID)
	}
	return nil
}

// ValidateDevice validates a Device before persistence.
func ValidateDevice(d *Device) error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if err := ValidateExternalID(d.ExternalID); err != nil {
		return err
	}
	if !ValidDeviceType(d.DeviceType) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceType, d.DeviceType)
	}
	if d.Status != "" && !ValidStatus(d.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}
