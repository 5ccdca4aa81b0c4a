package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/models"
)

// ReferenceRepository exposes the lookup tables experiences point at.
type ReferenceRepository interface {
	ListTypes(ctx context.Context) ([]models.Type, error)
	GetType(ctx context.Context, id uint) (models.Type, error)
	ListSubtypes(ctx context.Context) ([]models.Subtype, error)
	SubtypesByIDs(ctx context.Context, ids []uint) ([]models.Subtype, error)
	ListSections(ctx context.Context) ([]models.Section, error)
	SectionsByIDs(ctx context.Context, ids []uint) ([]models.Section, error)
	ListAffiliations(ctx context.Context) ([]models.Affiliation, error)
	GetAffiliationByName(ctx context.Context, name string) (models.Affiliation, error)
	ListKeywords(ctx context.Context) ([]models.Keyword, error)
	KeywordsByIDs(ctx context.Context, ids []uint) ([]models.Keyword, error)
	Create(ctx context.Context, value interface{}) error
}

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository instantiates the repository.
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) ListTypes(ctx context.Context) ([]models.Type, error) {
	var types []models.Type
	if err := r.db.WithContext(ctx).Preload("ValidSubtypes").Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *referenceRepository) GetType(ctx context.Context, id uint) (models.Type, error) {
	var value models.Type
	if err := r.db.WithContext(ctx).Preload("ValidSubtypes").First(&value, id).Error; err != nil {
		return models.Type{}, err
	}
	return value, nil
}

func (r *referenceRepository) ListSubtypes(ctx context.Context) ([]models.Subtype, error) {
	var subtypes []models.Subtype
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&subtypes).Error; err != nil {
		return nil, err
	}
	return subtypes, nil
}

func (r *referenceRepository) SubtypesByIDs(ctx context.Context, ids []uint) ([]models.Subtype, error) {
	subtypes := []models.Subtype{}
	if len(ids) == 0 {
		return subtypes, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&subtypes).Error; err != nil {
		return nil, err
	}
	return subtypes, nil
}

func (r *referenceRepository) ListSections(ctx context.Context) ([]models.Section, error) {
	var sections []models.Section
	if err := r.db.WithContext(ctx).Preload("Affiliation").Order("\"order\" ASC, name ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *referenceRepository) SectionsByIDs(ctx context.Context, ids []uint) ([]models.Section, error) {
	sections := []models.Section{}
	if len(ids) == 0 {
		return sections, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *referenceRepository) ListAffiliations(ctx context.Context) ([]models.Affiliation, error) {
	var affiliations []models.Affiliation
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&affiliations).Error; err != nil {
		return nil, err
	}
	return affiliations, nil
}

func (r *referenceRepository) GetAffiliationByName(ctx context.Context, name string) (models.Affiliation, error) {
	var affiliation models.Affiliation
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&affiliation).Error; err != nil {
		return models.Affiliation{}, err
	}
	return affiliation, nil
}

func (r *referenceRepository) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	var keywords []models.Keyword
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&keywords).Error; err != nil {
		return nil, err
	}
	return keywords, nil
}

func (r *referenceRepository) KeywordsByIDs(ctx context.Context, ids []uint) ([]models.Keyword, error) {
	keywords := []models.Keyword{}
	if len(ids) == 0 {
		return keywords, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&keywords).Error; err != nil {
		return nil, err
	}
	return keywords, nil
}

// Create persists any reference entity (type, subtype, section, affiliation,
// keyword, semester or requirement).
func (r *referenceRepository) Create(ctx context.Context, value interface{}) error {
	return r.db.WithContext(ctx).Create(value).Error
}
