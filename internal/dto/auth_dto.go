package dto

import (
	"time"

	"github.com/noah-isme/exdb-api/internal/models"
)

// LoginRequest captures user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the profile of the authenticated user.
type UserResponse struct {
	UserSummary
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	IsSuperuser bool           `json:"is_superuser"`
	Affiliation *ReferenceItem `json:"affiliation,omitempty"`
	Section     *ReferenceItem `json:"section,omitempty"`
}

// NewUserResponse converts a user model into its profile DTO.
func NewUserResponse(user models.User) UserResponse {
	response := UserResponse{
		UserSummary: NewUserSummary(user),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsSuperuser: user.IsSuperuser,
	}
	if user.Affiliation != nil {
		response.Affiliation = &ReferenceItem{ID: user.Affiliation.ID, Name: user.Affiliation.Name}
	}
	if user.Section != nil {
		response.Section = &ReferenceItem{ID: user.Section.ID, Name: user.Section.Name}
	}
	return response
}
