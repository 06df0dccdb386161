package location

import "time"

// Room types recognised by the inventory. RoomTypeOther is the catch-all
// for imports that name an unknown type.
const (
	RoomTypeLivingRoom = "living_room"
	RoomTypeBedroom    = "bedroom"
	RoomTypeKitchen    = "kitchen"
	RoomTypeBathroom   = "bathroom"
	RoomTypeStudy      = "study"
	RoomTypeHallway    = "hallway"
	RoomTypeBalcony    = "balcony"
	RoomTypeOther      = "other"
)

// roomTypes is the set of valid room type strings.
var roomTypes = map[string]bool{
	RoomTypeLivingRoom: true,
	RoomTypeBedroom:    true,
	RoomTypeKitchen:    true,
	RoomTypeBathroom:   true,
	RoomTypeStudy:      true,
	RoomTypeHallway:    true,
	RoomTypeBalcony:    true,
	RoomTypeOther:      true,
}

// ValidRoomType reports whether s is a recognised room type.
func ValidRoomType(s string) bool {
	return roomTypes[s]
}

// Room represents a physical space devices are assigned to.
// Names are unique across the site.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RoomType  string    `json:"room_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
