package models

import "time"

// Experience statuses stored on the experiences table.
const (
	ExperienceStatusDraft     = "draft"
	ExperienceStatusPending   = "pending"
	ExperienceStatusApproved  = "approved"
	ExperienceStatusDenied    = "denied"
	ExperienceStatusCompleted = "completed"
	ExperienceStatusCancelled = "cancelled"

	// ExperienceStatusNeedsEvaluation is a display-only status for approved
	// experiences whose end time has passed. It is never persisted.
	ExperienceStatusNeedsEvaluation = "needs-evaluation"
)

// ExperienceStatuses lists the persisted status codes in display order.
var ExperienceStatuses = []string{
	ExperienceStatusDraft,
	ExperienceStatusPending,
	ExperienceStatusApproved,
	ExperienceStatusDenied,
	ExperienceStatusCompleted,
	ExperienceStatusCancelled,
}

var experienceStatusLabels = map[string]string{
	ExperienceStatusDraft:           "Draft",
	ExperienceStatusPending:         "Pending Approval",
	ExperienceStatusApproved:        "Approved",
	ExperienceStatusDenied:          "Denied",
	ExperienceStatusCompleted:       "Completed",
	ExperienceStatusCancelled:       "Cancelled",
	ExperienceStatusNeedsEvaluation: "Needs Evaluation",
}

// Funding status codes.
const (
	FundsNotNeeded = "na"
	FundsNeeded    = "nr"
	FundsApproved  = "ap"
	FundsDenied    = "df"
)

var fundsLabels = map[string]string{
	FundsNotNeeded: "Not needed",
	FundsNeeded:    "Needed",
	FundsApproved:  "Approved",
	FundsDenied:    "Denied",
}

// Experience is a student-life event tracked through authoring, approval and evaluation.
type Experience struct {
	ID                          uint       `gorm:"primaryKey" json:"id"`
	Name                        string     `gorm:"size:300;not null" json:"name"`
	Description                 string     `gorm:"type:text" json:"description"`
	Goals                       string     `gorm:"type:text" json:"goals"`
	StartDatetime               *time.Time `json:"start_datetime"`
	EndDatetime                 *time.Time `json:"end_datetime"`
	Audience                    string     `gorm:"size:64" json:"audience"`
	Attendance                  *int       `json:"attendance"`
	Guest                       string     `gorm:"size:300" json:"guest"`
	GuestOffice                 string     `gorm:"size:300" json:"guest_office"`
	Funds                       string     `gorm:"size:2;not null;default:na" json:"funds"`
	Conclusion                  string     `gorm:"type:text" json:"conclusion"`
	Status                      string     `gorm:"size:16;not null;index" json:"status"`
	AuthorID                    uint       `gorm:"not null;index" json:"author_id"`
	TypeID                      *uint      `json:"type_id"`
	NextApproverID              *uint      `gorm:"index" json:"next_approver_id"`
	NeedsAuthorEmail            bool       `gorm:"not null;default:false" json:"needs_author_email"`
	LastEvaluationEmailDatetime *time.Time `json:"last_evaluation_email_datetime"`
	Version                     uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`

	Author       User                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	Type         *Type                `json:"type,omitempty"`
	NextApprover *User                `gorm:"foreignKey:NextApproverID" json:"next_approver,omitempty"`
	Planners     []User               `gorm:"many2many:experience_planners" json:"planners"`
	Keywords     []Keyword            `gorm:"many2many:experience_keywords" json:"keywords"`
	Recognition  []Section            `gorm:"many2many:experience_recognition" json:"recognition"`
	Subtypes     []Subtype            `gorm:"many2many:experience_subtypes" json:"subtypes"`
	Approvals    []ExperienceApproval `json:"approvals,omitempty"`
	Comments     []ExperienceComment  `json:"comments,omitempty"`
}

// NeedsVerification reports whether any selected subtype requires supervisor
// verification. An experience without subtypes is treated as needing it.
func (e Experience) NeedsVerification() bool {
	return SubtypesNeedVerification(e.Subtypes)
}

// SubtypesNeedVerification applies the conservative union over subtypes.
func SubtypesNeedVerification(subtypes []Subtype) bool {
	if len(subtypes) == 0 {
		return true
	}
	for _, subtype := range subtypes {
		if subtype.NeedsVerification {
			return true
		}
	}
	return false
}

// NeedsEvaluation reports whether the experience is approved and already over.
func (e Experience) NeedsEvaluation(reference time.Time) bool {
	return e.Status == ExperienceStatusApproved && e.EndDatetime != nil && e.EndDatetime.Before(reference)
}

// DisplayStatus returns the dashboard status, substituting needs-evaluation
// for approved experiences that have ended.
func (e Experience) DisplayStatus(reference time.Time) string {
	if e.NeedsEvaluation(reference) {
		return ExperienceStatusNeedsEvaluation
	}
	return e.Status
}

// IsAuthor reports whether the user created the experience.
func (e Experience) IsAuthor(userID uint) bool {
	return e.AuthorID == userID
}

// IsPlanner reports whether the user is listed as a planner.
func (e Experience) IsPlanner(userID uint) bool {
	for _, planner := range e.Planners {
		if planner.ID == userID {
			return true
		}
	}
	return false
}

// IsNextApprover reports whether the experience is routed to the user.
func (e Experience) IsNextApprover(userID uint) bool {
	return e.NextApproverID != nil && *e.NextApproverID == userID
}

// ApprovedBy reports whether the user has an approval entry on the experience.
func (e Experience) ApprovedBy(userID uint) bool {
	for _, approval := range e.Approvals {
		if approval.ApproverID == userID {
			return true
		}
	}
	return false
}

// StatusLabel returns a human readable label for a status code.
func StatusLabel(status string) string {
	if label, ok := experienceStatusLabels[status]; ok {
		return label
	}
	return status
}

// FundsLabel returns a human readable label for a funding status code.
func FundsLabel(code string) string {
	if label, ok := fundsLabels[code]; ok {
		return label
	}
	return code
}

// IsValidExperienceStatus reports whether status is a persisted status code.
func IsValidExperienceStatus(status string) bool {
	for _, candidate := range ExperienceStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
