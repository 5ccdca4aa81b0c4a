package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/models"
)

// RequirementRepository reads semesters and their completion requirements.
type RequirementRepository interface {
	GetSemester(ctx context.Context, id uint) (models.Semester, error)
	ListSemesters(ctx context.Context) ([]models.Semester, error)
	ListBySemester(ctx context.Context, semesterID uint) ([]models.Requirement, error)
}

type requirementRepository struct {
	db *gorm.DB
}

// NewRequirementRepository instantiates the repository.
func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepository{db: db}
}

func (r *requirementRepository) GetSemester(ctx context.Context, id uint) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).First(&semester, id).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *requirementRepository) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	var semesters []models.Semester
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

func (r *requirementRepository) ListBySemester(ctx context.Context, semesterID uint) ([]models.Requirement, error) {
	var requirements []models.Requirement
	err := r.db.WithContext(ctx).
		Preload("Subtype").
		Preload("Affiliation").
		Preload("Semester").
		Where("semester_id = ?", semesterID).
		Order("affiliation_id ASC, subtype_id ASC").
		Find(&requirements).Error
	if err != nil {
		return nil, err
	}
	return requirements, nil
}
