package models

import "time"

// EmailTask registers a periodic notification job by its registry identifier.
type EmailTask struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:300;not null" json:"name"`
	Package   string    `gorm:"size:300;uniqueIndex;not null" json:"package"`
	CreatedAt time.Time `json:"created_at"`
}
