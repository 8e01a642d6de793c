package directory

import "time"

// Staff roles.
const (
	RolePrincipal   = "principal"
	RoleHeadTeacher = "head_teacher"
	RoleTeacher     = "teacher"
)

// StaffMember is a school account parents can message directly.
type StaffMember struct {
	ID        string    `gorm:"primarykey;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Role      string    `gorm:"size:32;not null;index" json:"role"`
	Title     string    `gorm:"size:100" json:"title"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for StaffMember model.
func (StaffMember) TableName() string {
	return "staff_members"
}

// DefaultStaff is seeded into an empty directory.
func DefaultStaff() []StaffMember {
	return []StaffMember{
		{ID: "admin001", Name: "Principal", Role: RolePrincipal, Title: "Principal"},
		{ID: "admin002", Name: "Head Teacher", Role: RoleHeadTeacher, Title: "Head Teacher"},
		{ID: "admin003", Name: "Lion Class Teacher", Role: RoleTeacher, Title: "Lion class"},
		{ID: "admin004", Name: "Elephant Class Teacher", Role: RoleTeacher, Title: "Elephant class"},
		{ID: "admin005", Name: "Chick Class Teacher", Role: RoleTeacher, Title: "Chick class"},
		{ID: "admin006", Name: "Duck Class Teacher", Role: RoleTeacher, Title: "Duck class"},
	}
}
