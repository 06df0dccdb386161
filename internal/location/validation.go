package location

import (
	"fmt"
	"strings"
)

const maxNameLength = 100

// ValidateName checks if a room name is valid.
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

// ValidateRoom validates a Room before persistence.
func ValidateRoom(r *Room) error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if r.RoomType != "" && !ValidRoomType(r.RoomType) {
		return fmt.Errorf("%w: %q", ErrInvalidRoomType, r.RoomType)
	}
	return nil
}
