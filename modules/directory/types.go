package directory

import domain "github.com/example/preschool-chat/domain/chat"

// Service names registered by the directory module.
const (
	ServiceListAdmins = "list-admins"
	ServiceGetStaff   = "get-staff"
)

// ListAdminsRequest is the request for the list-admins service.
type ListAdminsRequest struct{}

// ListAdminsResponse lists the staff accounts parents can message.
type ListAdminsResponse struct {
	Admins []StaffMember      `json:"admins"`
	Error  *domain.ReplyError `json:"error,omitempty"`
}

// GetStaffRequest is the request for the get-staff service.
type GetStaffRequest struct {
	ID string `json:"id"`
}

// GetStaffResponse carries one staff profile.
type GetStaffResponse struct {
	Staff *StaffMember       `json:"staff,omitempty"`
	Error *domain.ReplyError `json:"error,omitempty"`
}
