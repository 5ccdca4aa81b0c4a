package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/exdb-api/internal/models"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListHallstaff(ctx context.Context) ([]models.User, error)
	ListActive(ctx context.Context) ([]models.User, error)
	ListUsernames(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, usernames []string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Affiliation").Preload("Section").First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListHallstaff(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.UserRoleHallstaff, true).
		Order("last_name ASC, first_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Affiliation").
		Preload("Section").
		Where("is_active = ?", true).
		Order("last_name ASC, first_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListUsernames(ctx context.Context) ([]string, error) {
	var usernames []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("username ASC").Pluck("username", &usernames).Error; err != nil {
		return nil, err
	}
	return usernames, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "email", "role", "is_active", "affiliation_id", "updated_at"}),
		}).
		Create(user).Error
}

func (r *userRepository) Deactivate(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username IN ? AND is_superuser = ?", usernames, false).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
