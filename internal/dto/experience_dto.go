package dto

import (
	"time"

	"github.com/noah-isme/exdb-api/internal/models"
)

// Experience form actions.
const (
	ExperienceActionSave   = "save"
	ExperienceActionSubmit = "submit"
)

// ExperienceRequest captures the create and edit payload of an experience.
type ExperienceRequest struct {
	Action         string     `json:"action" validate:"required,oneof=save submit"`
	Name           string     `json:"name" validate:"max=300"`
	Description    string     `json:"description"`
	Goals          string     `json:"goals"`
	StartDatetime  *time.Time `json:"start_datetime"`
	EndDatetime    *time.Time `json:"end_datetime"`
	Audience       string     `json:"audience" validate:"max=64"`
	Attendance     *int       `json:"attendance"`
	Guest          string     `json:"guest" validate:"max=300"`
	GuestOffice    string     `json:"guest_office" validate:"max=300"`
	Funds          string     `json:"funds" validate:"omitempty,oneof=na nr ap df"`
	Conclusion     string     `json:"conclusion"`
	TypeID         *uint      `json:"type_id"`
	SubtypeIDs     []uint     `json:"subtype_ids"`
	PlannerIDs     []uint     `json:"planner_ids"`
	KeywordIDs     []uint     `json:"keyword_ids"`
	RecognitionIDs []uint     `json:"recognition_ids"`
	NextApproverID *uint      `json:"next_approver_id"`
	// Version guards edits against concurrent changes when non-zero.
	Version uint `json:"version"`
}

// Approval actions.
const (
	ApprovalActionApprove = "approve"
	ApprovalActionDeny    = "deny"
	ApprovalActionDelete  = "delete"
)

// ApprovalRequest captures an approver decision on a pending experience.
type ApprovalRequest struct {
	Action         string `json:"action" validate:"required,oneof=approve deny delete"`
	Message        string `json:"message" validate:"max=5000"`
	NextApproverID *uint  `json:"next_approver_id"`
	Version        uint   `json:"version"`
}

// ConclusionRequest captures the evaluation of an approved experience.
type ConclusionRequest struct {
	Attendance *int   `json:"attendance"`
	Conclusion string `json:"conclusion"`
	Version    uint   `json:"version"`
}

// ExperienceSearchRequest defines filters for the search listing.
type ExperienceSearchRequest struct {
	Query     string
	Status    string
	TypeID    *uint
	SubtypeID *uint
	AuthorID  *uint
	Start     *time.Time
	End       *time.Time
}

// UserSummary is the compact representation of a user.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Hallstaff bool   `json:"hallstaff"`
}

// ReferenceItem is a named lookup value attached to an experience.
type ReferenceItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// CommentResponse serializes an experience comment.
type CommentResponse struct {
	ID        uint        `json:"id"`
	Author    UserSummary `json:"author"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// ApprovalResponse serializes an approval log entry.
type ApprovalResponse struct {
	ID        uint        `json:"id"`
	Approver  UserSummary `json:"approver"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExperienceSummary is the listing representation used by dashboards and searches.
type ExperienceSummary struct {
	ID            uint         `json:"id"`
	Name          string       `json:"name"`
	Status        string       `json:"status"`
	DisplayStatus string       `json:"display_status"`
	StatusLabel   string       `json:"status_label"`
	StartDatetime *time.Time   `json:"start_datetime"`
	EndDatetime   *time.Time   `json:"end_datetime"`
	Author        UserSummary  `json:"author"`
	NextApprover  *UserSummary `json:"next_approver,omitempty"`
	Version       uint         `json:"version"`
}

// ExperienceResponse is the detailed representation of an experience.
type ExperienceResponse struct {
	ExperienceSummary
	Description       string             `json:"description"`
	Goals             string             `json:"goals"`
	Audience          string             `json:"audience"`
	Attendance        *int               `json:"attendance"`
	Guest             string             `json:"guest"`
	GuestOffice       string             `json:"guest_office"`
	Funds             string             `json:"funds"`
	FundsLabel        string             `json:"funds_label"`
	Conclusion        string             `json:"conclusion"`
	NeedsVerification bool               `json:"needs_verification"`
	Type              *ReferenceItem     `json:"type"`
	Subtypes          []ReferenceItem    `json:"subtypes"`
	Keywords          []ReferenceItem    `json:"keywords"`
	Recognition       []ReferenceItem    `json:"recognition"`
	Planners          []UserSummary      `json:"planners"`
	Approvals         []ApprovalResponse `json:"approvals"`
	Comments          []CommentResponse  `json:"comments"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ExperienceListResponse wraps a status listing.
type ExperienceListResponse struct {
	Status string              `json:"status"`
	Label  string              `json:"label"`
	Items  []ExperienceSummary `json:"items"`
	Total  int                 `json:"total"`
}

// NewUserSummary converts a user model into its compact DTO.
func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName(),
		Email:     user.Email,
		Role:      user.Role,
		Hallstaff: user.IsHallstaff(),
	}
}

// NewExperienceSummary converts an experience into its listing DTO.
func NewExperienceSummary(experience models.Experience, reference time.Time) ExperienceSummary {
	display := experience.DisplayStatus(reference)
	summary := ExperienceSummary{
		ID:            experience.ID,
		Name:          experience.Name,
		Status:        experience.Status,
		DisplayStatus: display,
		StatusLabel:   models.StatusLabel(display),
		StartDatetime: experience.StartDatetime,
		EndDatetime:   experience.EndDatetime,
		Author:        NewUserSummary(experience.Author),
		Version:       experience.Version,
	}
	if experience.NextApprover != nil {
		approver := NewUserSummary(*experience.NextApprover)
		summary.NextApprover = &approver
	}
	return summary
}

// NewExperienceSummaries converts a slice of experiences.
func NewExperienceSummaries(experiences []models.Experience, reference time.Time) []ExperienceSummary {
	result := make([]ExperienceSummary, 0, len(experiences))
	for _, experience := range experiences {
		result = append(result, NewExperienceSummary(experience, reference))
	}
	return result
}

// NewExperienceResponse converts an experience into its detailed DTO.
func NewExperienceResponse(experience models.Experience, reference time.Time) ExperienceResponse {
	response := ExperienceResponse{
		ExperienceSummary: NewExperienceSummary(experience, reference),
		Description:       experience.Description,
		Goals:             experience.Goals,
		Audience:          experience.Audience,
		Attendance:        experience.Attendance,
		Guest:             experience.Guest,
		GuestOffice:       experience.GuestOffice,
		Funds:             experience.Funds,
		FundsLabel:        models.FundsLabel(experience.Funds),
		Conclusion:        experience.Conclusion,
		NeedsVerification: experience.NeedsVerification(),
		Subtypes:          make([]ReferenceItem, 0, len(experience.Subtypes)),
		Keywords:          make([]ReferenceItem, 0, len(experience.Keywords)),
		Recognition:       make([]ReferenceItem, 0, len(experience.Recognition)),
		Planners:          make([]UserSummary, 0, len(experience.Planners)),
		Approvals:         make([]ApprovalResponse, 0, len(experience.Approvals)),
		Comments:          make([]CommentResponse, 0, len(experience.Comments)),
		CreatedAt:         experience.CreatedAt,
		UpdatedAt:         experience.UpdatedAt,
	}

	if experience.Type != nil {
		response.Type = &ReferenceItem{ID: experience.Type.ID, Name: experience.Type.Name}
	}
	for _, subtype := range experience.Subtypes {
		response.Subtypes = append(response.Subtypes, ReferenceItem{ID: subtype.ID, Name: subtype.Name})
	}
	for _, keyword := range experience.Keywords {
		response.Keywords = append(response.Keywords, ReferenceItem{ID: keyword.ID, Name: keyword.Name})
	}
	for _, section := range experience.Recognition {
		response.Recognition = append(response.Recognition, ReferenceItem{ID: section.ID, Name: section.Name})
	}
	for _, planner := range experience.Planners {
		response.Planners = append(response.Planners, NewUserSummary(planner))
	}
	for _, approval := range experience.Approvals {
		response.Approvals = append(response.Approvals, ApprovalResponse{
			ID:        approval.ID,
			Approver:  NewUserSummary(approval.Approver),
			Timestamp: approval.Timestamp,
		})
	}
	for _, comment := range experience.Comments {
		response.Comments = append(response.Comments, CommentResponse{
			ID:        comment.ID,
			Author:    NewUserSummary(comment.Author),
			Message:   comment.Message,
			Timestamp: comment.Timestamp,
		})
	}

	return response
}
