package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/models"
)

// EmailTaskRepository stores the registered periodic email jobs.
type EmailTaskRepository interface {
	List(ctx context.Context) ([]models.EmailTask, error)
	CreateBatch(ctx context.Context, tasks []models.EmailTask) error
}

type emailTaskRepository struct {
	db *gorm.DB
}

// NewEmailTaskRepository instantiates the repository.
func NewEmailTaskRepository(db *gorm.DB) EmailTaskRepository {
	return &emailTaskRepository{db: db}
}

func (r *emailTaskRepository) List(ctx context.Context) ([]models.EmailTask, error) {
	var tasks []models.EmailTask
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *emailTaskRepository) CreateBatch(ctx context.Context, tasks []models.EmailTask) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&tasks).Error
}
