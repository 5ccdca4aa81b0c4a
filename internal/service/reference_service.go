package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// Reference validation messages.
const (
	MsgUnknownSubtype     = "Select a valid subtype."
	MsgUnknownAffiliation = "Select a valid affiliation."
	MsgUnknownSemester    = "Select a valid semester."
)

// ReferenceService lists and maintains the lookup tables experiences refer to.
type ReferenceService interface {
	Types(ctx context.Context) ([]models.Type, error)
	Subtypes(ctx context.Context) ([]models.Subtype, error)
	Sections(ctx context.Context) ([]models.Section, error)
	Affiliations(ctx context.Context) ([]models.Affiliation, error)
	Keywords(ctx context.Context) ([]models.Keyword, error)
	Semesters(ctx context.Context) ([]models.Semester, error)
	Approvers(ctx context.Context) ([]dto.UserSummary, error)

	CreateType(ctx context.Context, req dto.TypeCreateRequest) (models.Type, error)
	CreateSubtype(ctx context.Context, req dto.SubtypeCreateRequest) (models.Subtype, error)
	CreateSection(ctx context.Context, req dto.SectionCreateRequest) (models.Section, error)
	CreateAffiliation(ctx context.Context, req dto.NamedCreateRequest) (models.Affiliation, error)
	CreateKeyword(ctx context.Context, req dto.NamedCreateRequest) (models.Keyword, error)
	CreateSemester(ctx context.Context, req dto.SemesterCreateRequest) (models.Semester, error)
	CreateRequirement(ctx context.Context, req dto.RequirementCreateRequest) (models.Requirement, error)
}

type referenceService struct {
	references   repository.ReferenceRepository
	requirements repository.RequirementRepository
	users        repository.UserRepository
	logger       zerolog.Logger
}

// NewReferenceService constructs the reference data service.
func NewReferenceService(references repository.ReferenceRepository, requirements repository.RequirementRepository, users repository.UserRepository, logger zerolog.Logger) ReferenceService {
	return &referenceService{
		references:   references,
		requirements: requirements,
		users:        users,
		logger:       logger.With().Str("component", "reference_service").Logger(),
	}
}

func (s *referenceService) Types(ctx context.Context) ([]models.Type, error) {
	return s.references.ListTypes(ctx)
}

func (s *referenceService) Subtypes(ctx context.Context) ([]models.Subtype, error) {
	return s.references.ListSubtypes(ctx)
}

func (s *referenceService) Sections(ctx context.Context) ([]models.Section, error) {
	return s.references.ListSections(ctx)
}

func (s *referenceService) Affiliations(ctx context.Context) ([]models.Affiliation, error) {
	return s.references.ListAffiliations(ctx)
}

func (s *referenceService) Keywords(ctx context.Context) ([]models.Keyword, error) {
	return s.references.ListKeywords(ctx)
}

func (s *referenceService) Semesters(ctx context.Context) ([]models.Semester, error) {
	return s.requirements.ListSemesters(ctx)
}

// Approvers lists the active hallstaff an experience may be routed to.
func (s *referenceService) Approvers(ctx context.Context) ([]dto.UserSummary, error) {
	users, err := s.users.ListHallstaff(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, dto.NewUserSummary(user))
	}
	return summaries, nil
}

func (s *referenceService) CreateType(ctx context.Context, req dto.TypeCreateRequest) (models.Type, error) {
	subtypeIDs := uniqueIDs(req.SubtypeIDs)
	subtypes, err := s.references.SubtypesByIDs(ctx, subtypeIDs)
	if err != nil {
		return models.Type{}, err
	}
	if len(subtypes) != len(subtypeIDs) {
		return models.Type{}, &ValidationError{Messages: []string{MsgUnknownSubtype}}
	}

	value := models.Type{Name: strings.TrimSpace(req.Name), ValidSubtypes: subtypes}
	if err := s.create(ctx, "type", &value); err != nil {
		return models.Type{}, err
	}
	return value, nil
}

func (s *referenceService) CreateSubtype(ctx context.Context, req dto.SubtypeCreateRequest) (models.Subtype, error) {
	value := models.Subtype{
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		NeedsVerification: true,
	}
	if req.NeedsVerification != nil {
		value.NeedsVerification = *req.NeedsVerification
	}
	if err := s.create(ctx, "subtype", &value); err != nil {
		return models.Subtype{}, err
	}
	return value, nil
}

func (s *referenceService) CreateSection(ctx context.Context, req dto.SectionCreateRequest) (models.Section, error) {
	name := strings.TrimSpace(req.Name)
	value := models.Section{
		Name:          name,
		Order:         models.SectionOrderKey(name),
		AffiliationID: req.AffiliationID,
	}
	if err := s.create(ctx, "section", &value); err != nil {
		return models.Section{}, err
	}
	return value, nil
}

func (s *referenceService) CreateAffiliation(ctx context.Context, req dto.NamedCreateRequest) (models.Affiliation, error) {
	value := models.Affiliation{Name: strings.TrimSpace(req.Name)}
	if err := s.create(ctx, "affiliation", &value); err != nil {
		return models.Affiliation{}, err
	}
	return value, nil
}

func (s *referenceService) CreateKeyword(ctx context.Context, req dto.NamedCreateRequest) (models.Keyword, error) {
	value := models.Keyword{Name: strings.TrimSpace(req.Name)}
	if err := s.create(ctx, "keyword", &value); err != nil {
		return models.Keyword{}, err
	}
	return value, nil
}

func (s *referenceService) CreateSemester(ctx context.Context, req dto.SemesterCreateRequest) (models.Semester, error) {
	value := models.Semester{
		Name:      strings.TrimSpace(req.Name),
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
	}
	if err := s.create(ctx, "semester", &value); err != nil {
		return models.Semester{}, err
	}
	return value, nil
}

func (s *referenceService) CreateRequirement(ctx context.Context, req dto.RequirementCreateRequest) (models.Requirement, error) {
	messages := make([]string, 0)

	subtypes, err := s.references.SubtypesByIDs(ctx, []uint{req.SubtypeID})
	if err != nil {
		return models.Requirement{}, err
	}
	if len(subtypes) == 0 {
		messages = append(messages, MsgUnknownSubtype)
	}

	affiliations, err := s.references.ListAffiliations(ctx)
	if err != nil {
		return models.Requirement{}, err
	}
	known := false
	for _, affiliation := range affiliations {
		if affiliation.ID == req.AffiliationID {
			known = true
			break
		}
	}
	if !known {
		messages = append(messages, MsgUnknownAffiliation)
	}

	if _, err := s.requirements.GetSemester(ctx, req.SemesterID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Requirement{}, err
		}
		messages = append(messages, MsgUnknownSemester)
	}

	if len(messages) > 0 {
		return models.Requirement{}, &ValidationError{Messages: messages}
	}

	value := models.Requirement{
		SubtypeID:     req.SubtypeID,
		AffiliationID: req.AffiliationID,
		SemesterID:    req.SemesterID,
		TotalNeeded:   req.TotalNeeded,
	}
	if err := s.references.Create(ctx, &value); err != nil {
		return models.Requirement{}, err
	}
	s.logger.Info().Uint("requirement_id", value.ID).Msg("requirement created")
	return value, nil
}

func (s *referenceService) create(ctx context.Context, kind string, value interface{}) error {
	if err := s.references.Create(ctx, value); err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to create reference value")
		return err
	}
	return nil
}
