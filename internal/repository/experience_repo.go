package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/exdb-api/internal/models"
)

// ErrVersionConflict indicates the experience changed since it was read.
var ErrVersionConflict = errors.New("experience was modified concurrently")

// ExperienceFilter narrows experience searches.
type ExperienceFilter struct {
	Search     string
	Statuses   []string
	TypeID     *uint
	SubtypeID  *uint
	AuthorID   *uint
	StartAfter *time.Time
	EndBefore  *time.Time
	// VisibleTo restricts results to experiences the user authored, plans
	// (outside drafts) or, when IncludeAllNonDraft is set, any non-draft.
	VisibleTo          *uint
	IncludeAllNonDraft bool
}

// ExperienceUpdate bundles the rows written together with an experience update.
type ExperienceUpdate struct {
	// At stamps updated_at. The zero value falls back to the wall clock.
	At                  time.Time
	ReplaceAssociations bool
	Approval            *models.ExperienceApproval
	Comment             *models.ExperienceComment
}

// ExperienceRepository defines persistence operations for experiences.
type ExperienceRepository interface {
	GetByID(ctx context.Context, id uint) (models.Experience, error)
	Create(ctx context.Context, experience *models.Experience) error
	Update(ctx context.Context, experience *models.Experience, update ExperienceUpdate) error
	ListRelated(ctx context.Context, userID uint) ([]models.Experience, error)
	Search(ctx context.Context, filter ExperienceFilter) ([]models.Experience, error)
	ListPending(ctx context.Context) ([]models.Experience, error)
	ListAwaitingEvaluation(ctx context.Context, reference time.Time) ([]models.Experience, error)
	ListAuthorEmailDue(ctx context.Context) ([]models.Experience, error)
	ListEvaluationEmailDue(ctx context.Context, reference, cutoff time.Time) ([]models.Experience, error)
	ClearAuthorEmail(ctx context.Context, id uint) error
	StampEvaluationEmail(ctx context.Context, id uint, at time.Time) error
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]models.Experience, error)
}

type experienceRepository struct {
	db *gorm.DB
}

// NewExperienceRepository instantiates a GORM-backed repository.
func NewExperienceRepository(db *gorm.DB) ExperienceRepository {
	return &experienceRepository{db: db}
}

func (r *experienceRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Experience{}).
		Preload("Author").
		Preload("Type").
		Preload("NextApprover").
		Preload("Planners").
		Preload("Subtypes").
		Preload("Keywords").
		Preload("Recognition").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Preload("Approvals.Approver")
}

func (r *experienceRepository) GetByID(ctx context.Context, id uint) (models.Experience, error) {
	var experience models.Experience
	err := r.baseQuery(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Preload("Comments.Author").
		First(&experience, id).Error
	if err != nil {
		return models.Experience{}, err
	}

	return experience, nil
}

func (r *experienceRepository) Create(ctx context.Context, experience *models.Experience) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if experience.Version == 0 {
			experience.Version = 1
		}
		if err := tx.Omit(clause.Associations).Create(experience).Error; err != nil {
			return err
		}
		return replaceAssociations(tx, experience)
	})
}

func (r *experienceRepository) Update(ctx context.Context, experience *models.Experience, update ExperienceUpdate) error {
	updatedAt := update.At
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expected := experience.Version
		result := tx.Model(&models.Experience{}).
			Where("id = ? AND version = ?", experience.ID, expected).
			Updates(map[string]interface{}{
				"name":               experience.Name,
				"description":        experience.Description,
				"goals":              experience.Goals,
				"start_datetime":     experience.StartDatetime,
				"end_datetime":       experience.EndDatetime,
				"audience":           experience.Audience,
				"attendance":         experience.Attendance,
				"guest":              experience.Guest,
				"guest_office":       experience.GuestOffice,
				"funds":              experience.Funds,
				"conclusion":         experience.Conclusion,
				"status":             experience.Status,
				"type_id":            experience.TypeID,
				"next_approver_id":   experience.NextApproverID,
				"needs_author_email": experience.NeedsAuthorEmail,
				"version":            expected + 1,
				"updated_at":         updatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		experience.Version = expected + 1
		experience.UpdatedAt = updatedAt

		if update.ReplaceAssociations {
			if err := replaceAssociations(tx, experience); err != nil {
				return err
			}
		}

		if update.Approval != nil {
			update.Approval.ExperienceID = experience.ID
			if err := tx.Omit(clause.Associations).Create(update.Approval).Error; err != nil {
				return err
			}
		}

		if update.Comment != nil {
			update.Comment.ExperienceID = experience.ID
			if err := tx.Omit(clause.Associations).Create(update.Comment).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func replaceAssociations(tx *gorm.DB, experience *models.Experience) error {
	model := &models.Experience{ID: experience.ID}
	if err := tx.Model(model).Association("Planners").Replace(idsOnlyUsers(experience.Planners)); err != nil {
		return err
	}
	if err := tx.Model(model).Association("Keywords").Replace(experience.Keywords); err != nil {
		return err
	}
	if err := tx.Model(model).Association("Recognition").Replace(experience.Recognition); err != nil {
		return err
	}
	return tx.Model(model).Association("Subtypes").Replace(experience.Subtypes)
}

func idsOnlyUsers(users []models.User) []models.User {
	result := make([]models.User, 0, len(users))
	for _, user := range users {
		result = append(result, models.User{ID: user.ID, Username: user.Username})
	}
	return result
}

func (r *experienceRepository) ListRelated(ctx context.Context, userID uint) ([]models.Experience, error) {
	var experiences []models.Experience
	err := r.baseQuery(ctx).
		Where("author_id = ?", userID).
		Or("next_approver_id = ?", userID).
		Or("id IN (?)", r.db.Table("experience_planners").Select("experience_id").Where("user_id = ?", userID)).
		Or("id IN (?)", r.db.Model(&models.ExperienceApproval{}).Select("experience_id").Where("approver_id = ?", userID)).
		Order("start_datetime ASC, id ASC").
		Find(&experiences).Error
	if err != nil {
		return nil, err
	}

	return experiences, nil
}

func (r *experienceRepository) Search(ctx context.Context, filter ExperienceFilter) ([]models.Experience, error) {
	query := r.baseQuery(ctx)

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(experiences.name) LIKE ? OR LOWER(experiences.description) LIKE ? OR LOWER(experiences.goals) LIKE ?", pattern, pattern, pattern)
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	if filter.TypeID != nil {
		query = query.Where("type_id = ?", *filter.TypeID)
	}

	if filter.SubtypeID != nil {
		query = query.Where("id IN (?)", r.db.Table("experience_subtypes").Select("experience_id").Where("subtype_id = ?", *filter.SubtypeID))
	}

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}

	if filter.StartAfter != nil {
		query = query.Where("start_datetime >= ?", *filter.StartAfter)
	}

	if filter.EndBefore != nil {
		query = query.Where("end_datetime <= ?", *filter.EndBefore)
	}

	if filter.VisibleTo != nil {
		userID := *filter.VisibleTo
		planned := r.db.Table("experience_planners").Select("experience_id").Where("user_id = ?", userID)
		visibility := r.db.Where("author_id = ?", userID).
			Or("status <> ? AND id IN (?)", models.ExperienceStatusDraft, planned)
		if filter.IncludeAllNonDraft {
			visibility = visibility.Or("status <> ?", models.ExperienceStatusDraft)
		}
		query = query.Where(visibility)
	}

	var experiences []models.Experience
	if err := query.Order("start_datetime DESC, id DESC").Find(&experiences).Error; err != nil {
		return nil, err
	}

	return experiences, nil
}

func (r *experienceRepository) ListPending(ctx context.Context) ([]models.Experience, error) {
	var experiences []models.Experience
	err := r.baseQuery(ctx).
		Where("status = ?", models.ExperienceStatusPending).
		Where("next_approver_id IS NOT NULL").
		Order("start_datetime ASC, id ASC").
		Find(&experiences).Error
	if err != nil {
		return nil, err
	}
	return experiences, nil
}

func (r *experienceRepository) ListAwaitingEvaluation(ctx context.Context, reference time.Time) ([]models.Experience, error) {
	var experiences []models.Experience
	err := r.baseQuery(ctx).
		Where("status = ?", models.ExperienceStatusApproved).
		Where("end_datetime < ?", reference).
		Order("end_datetime ASC, id ASC").
		Find(&experiences).Error
	if err != nil {
		return nil, err
	}
	return experiences, nil
}

func (r *experienceRepository) ListAuthorEmailDue(ctx context.Context) ([]models.Experience, error) {
	var experiences []models.Experience
	err := r.baseQuery(ctx).
		Where("status IN ?", []string{models.ExperienceStatusApproved, models.ExperienceStatusDenied}).
		Where("needs_author_email = ?", true).
		Order("id ASC").
		Find(&experiences).Error
	if err != nil {
		return nil, err
	}
	return experiences, nil
}

func (r *experienceRepository) ListEvaluationEmailDue(ctx context.Context, reference, cutoff time.Time) ([]models.Experience, error) {
	var experiences []models.Experience
	err := r.baseQuery(ctx).
		Where("status = ?", models.ExperienceStatusApproved).
		Where("end_datetime < ?", reference).
		Where(r.db.Where("last_evaluation_email_datetime IS NULL").Or("last_evaluation_email_datetime <= ?", cutoff)).
		Order("id ASC").
		Find(&experiences).Error
	if err != nil {
		return nil, err
	}
	return experiences, nil
}

func (r *experienceRepository) ClearAuthorEmail(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Experience{}).
		Where("id = ?", id).
		UpdateColumn("needs_author_email", false).Error
}

func (r *experienceRepository) StampEvaluationEmail(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Experience{}).
		Where("id = ?", id).
		UpdateColumn("last_evaluation_email_datetime", at).Error
}

func (r *experienceRepository) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]models.Experience, error) {
	var experiences []models.Experience
	err := r.db.WithContext(ctx).
		Preload("Planners").
		Preload("Subtypes").
		Where("status = ?", models.ExperienceStatusCompleted).
		Where("start_datetime >= ? AND start_datetime < ?", start, end).
		Find(&experiences).Error
	if err != nil {
		return nil, err
	}
	return experiences, nil
}
