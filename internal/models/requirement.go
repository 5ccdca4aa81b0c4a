package models

import "time"

// Semester bounds the window in which requirements must be met.
type Semester struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
}

// Contains reports whether the instant falls inside the semester.
func (s Semester) Contains(instant time.Time) bool {
	return !instant.Before(s.StartDate) && instant.Before(s.EndDate)
}

// Requirement states how many experiences of a subtype an affiliation must
// complete within a semester.
type Requirement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	SubtypeID     uint        `gorm:"not null;index" json:"subtype_id"`
	AffiliationID uint        `gorm:"not null;index" json:"affiliation_id"`
	SemesterID    uint        `gorm:"not null;index" json:"semester_id"`
	TotalNeeded   int         `gorm:"not null" json:"total_needed"`
	Subtype       Subtype     `json:"subtype"`
	Affiliation   Affiliation `json:"affiliation"`
	Semester      Semester    `json:"semester"`
}
