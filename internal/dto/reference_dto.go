package dto

import "time"

// TypeCreateRequest creates an experience type.
type TypeCreateRequest struct {
	Name       string `json:"name" validate:"required,max=300"`
	SubtypeIDs []uint `json:"subtype_ids"`
}

// SubtypeCreateRequest creates an experience subtype.
type SubtypeCreateRequest struct {
	Name              string `json:"name" validate:"required,max=300"`
	Description       string `json:"description"`
	NeedsVerification *bool  `json:"needs_verification"`
}

// SectionCreateRequest creates a section.
type SectionCreateRequest struct {
	Name          string `json:"name" validate:"required,max=300"`
	AffiliationID *uint  `json:"affiliation_id"`
}

// NamedCreateRequest creates a lookup value identified only by name.
type NamedCreateRequest struct {
	Name string `json:"name" validate:"required,max=300"`
}

// SemesterCreateRequest creates a semester.
type SemesterCreateRequest struct {
	Name      string    `json:"name" validate:"required,max=120"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// RequirementCreateRequest creates a completion requirement.
type RequirementCreateRequest struct {
	SubtypeID     uint `json:"subtype_id" validate:"required"`
	AffiliationID uint `json:"affiliation_id" validate:"required"`
	SemesterID    uint `json:"semester_id" validate:"required"`
	TotalNeeded   int  `json:"total_needed" validate:"gte=0"`
}
