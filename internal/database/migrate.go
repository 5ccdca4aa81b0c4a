package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/models"
)

// Models lists every entity managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&models.Affiliation{},
		&models.Section{},
		&models.User{},
		&models.Subtype{},
		&models.Type{},
		&models.Keyword{},
		&models.Experience{},
		&models.ExperienceApproval{},
		&models.ExperienceComment{},
		&models.EmailTask{},
		&models.Semester{},
		&models.Requirement{},
		&models.ActivityLog{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
