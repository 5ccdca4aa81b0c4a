package models

import "time"

// ExperienceApproval is an append-only record of an approver acting on an experience.
type ExperienceApproval struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExperienceID uint      `gorm:"not null;index" json:"experience_id"`
	ApproverID   uint      `gorm:"not null;index" json:"approver_id"`
	Timestamp    time.Time `gorm:"not null" json:"timestamp"`
	Approver     User      `json:"approver"`
}

// ExperienceComment is a note left on an experience during approval or denial.
type ExperienceComment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExperienceID uint      `gorm:"not null;index" json:"experience_id"`
	AuthorID     uint      `gorm:"not null" json:"author_id"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	Author       User      `json:"author"`
}
