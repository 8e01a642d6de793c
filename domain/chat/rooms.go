package chat

import "strings"

// Named rooms.
const (
	RoomGeneral       = "general"
	RoomAnnouncements = "announcements"

	RoomStaffGeneral   = "staff-general"
	RoomStaffTeachers  = "staff-teachers"
	RoomStaffAdmin     = "staff-admin"
	RoomStaffSupport   = "staff-support"
	RoomStaffEmergency = "staff-emergency"
)

// Default per-room capacities.
const (
	DefaultRoomCapacity   = 50
	DefaultDirectCapacity = 100
	DefaultStaffCapacity  = 100
)

const (
	directPrefix    = "direct:"
	directSeparator = ":"
)

// ParentRooms are the rooms offered on the parent chat page.
var ParentRooms = []string{RoomGeneral, "class1", "class2", "class3", "class4", RoomAnnouncements}

// StaffRooms returns the fixed staff room set an emergency fans out to.
func StaffRooms() []string {
	return []string{
		RoomStaffGeneral,
		RoomStaffTeachers,
		RoomStaffAdmin,
		RoomStaffSupport,
		RoomStaffEmergency,
	}
}

// IsStaffRoom reports whether room belongs to the staff room set.
func IsStaffRoom(room string) bool {
	for _, r := range StaffRooms() {
		if r == room {
			return true
		}
	}
	return false
}

// DirectRoomKey derives the room key shared by two participants. The
// pair is ordered before joining, so DirectRoomKey(a, b) equals
// DirectRoomKey(b, a).
func DirectRoomKey(a, b string) (string, error) {
	if err := validateParticipant("authorId", a); err != nil {
		return "", err
	}
	if err := validateParticipant("targetId", b); err != nil {
		return "", err
	}
	if b < a {
		a, b = b, a
	}
	return directPrefix + a + directSeparator + b, nil
}

// IsDirectRoom reports whether key was produced by DirectRoomKey.
func IsDirectRoom(key string) bool {
	return strings.HasPrefix(key, directPrefix)
}

func validateParticipant(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: field, Reason: field + " is required"}
	}
	if strings.Contains(id, directSeparator) {
		return &ValidationError{Field: field, Reason: field + " must not contain " + directSeparator}
	}
	return nil
}
