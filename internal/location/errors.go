package location

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID or name does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomNameExists is returned when a room name is already taken.
	ErrRoomNameExists = errors.New("room name already exists")

	// ErrInvalidName is returned when a room name fails validation.
	ErrInvalidName = errors.New("invalid room name")

	// ErrInvalidRoomType is returned when a room type is not recognised.
	ErrInvalidRoomType = errors.New("invalid room type")
)
