package models

import (
	"strings"
	"time"
)

// User roles.
const (
	UserRoleRequester = "requester"
	UserRoleHallstaff = "hallstaff"
)

// User is an account synchronised from the campus directory.
type User struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Username      string       `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName     string       `gorm:"size:150" json:"first_name"`
	LastName      string       `gorm:"size:150" json:"last_name"`
	Email         string       `gorm:"size:255" json:"email"`
	Role          string       `gorm:"size:32;not null;default:requester" json:"role"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser   bool         `gorm:"not null;default:false" json:"is_superuser"`
	PasswordHash  string       `gorm:"size:255" json:"-"`
	AffiliationID *uint        `json:"affiliation_id"`
	SectionID     *uint        `json:"section_id"`
	Affiliation   *Affiliation `json:"affiliation,omitempty"`
	Section       *Section     `json:"section,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// IsHallstaff reports whether the user may approve and deny experiences.
func (u User) IsHallstaff() bool {
	return u.Role == UserRoleHallstaff
}

// FullName joins the first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}
