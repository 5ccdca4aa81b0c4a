package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// Messages for choices that do not resolve to stored records.
const (
	MsgInvalidType         = "Select a valid type"
	MsgInvalidSubtypes     = "Select valid subtypes"
	MsgInvalidKeywords     = "Select valid keywords"
	MsgInvalidRecognition  = "Select valid sections for recognition"
	MsgInvalidPlanners     = "Select valid planners"
	MsgInvalidSupervisor   = "Select a valid supervisor"
	MsgSaveOnlyDraft       = "Only drafts and denied experiences can be saved without submitting"
	MsgApprovalEditSubmits = "Changes made while reviewing must be submitted"
)

// ExperienceService implements authoring, editing and evaluation of experiences.
type ExperienceService interface {
	Create(ctx context.Context, actor Actor, payload dto.ExperienceRequest) (dto.ExperienceResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.ExperienceRequest) (dto.ExperienceResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ExperienceResponse, error)
	Cancel(ctx context.Context, actor Actor, id uint, version uint) (dto.ExperienceResponse, error)
	Conclude(ctx context.Context, actor Actor, id uint, payload dto.ConclusionRequest) (dto.ExperienceResponse, error)
	History(ctx context.Context, actor Actor, id uint) ([]dto.ActivityResponse, error)
}

type experienceService struct {
	experiences repository.ExperienceRepository
	users       repository.UserRepository
	references  repository.ReferenceRepository
	validator   *validator.Validate
	activity    ActivityService
	recorder    transitionRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewExperienceService constructs the experience workflow service.
func NewExperienceService(
	experiences repository.ExperienceRepository,
	users repository.UserRepository,
	references repository.ReferenceRepository,
	validate *validator.Validate,
	activity ActivityService,
	events EventPublisher,
	cache DashboardInvalidator,
	logger zerolog.Logger,
) ExperienceService {
	serviceLogger := logger.With().Str("component", "experience_service").Logger()
	return &experienceService{
		experiences: experiences,
		users:       users,
		references:  references,
		validator:   validate,
		activity:    activity,
		recorder: transitionRecorder{
			activity: activity,
			events:   events,
			cache:    cache,
			logger:   serviceLogger,
		},
		logger: serviceLogger,
		tracer: otel.Tracer("github.com/noah-isme/exdb-api/internal/service/experience"),
		now:    time.Now,
	}
}

func (s *experienceService) Create(ctx context.Context, actor Actor, payload dto.ExperienceRequest) (dto.ExperienceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "experience.create")
	span.SetAttributes(
		attribute.Int64("experience.actor_id", int64(actor.ID)),
		attribute.String("experience.action", payload.Action),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		failSpan(span, err, "validation_failed")
		return dto.ExperienceResponse{}, err
	}

	experience := models.Experience{AuthorID: actor.ID}
	nextApprover, err := s.apply(ctx, &experience, payload)
	if err != nil {
		failSpan(span, err, "invalid_choices")
		return dto.ExperienceResponse{}, err
	}

	now := s.now()
	action, err := s.transitionAsOwner(&experience, nextApprover, payload.Action, now)
	if err != nil {
		failSpan(span, err, "rules_failed")
		return dto.ExperienceResponse{}, err
	}

	if err := s.experiences.Create(ctx, &experience); err != nil {
		failSpan(span, err, "create_failed")
		return dto.ExperienceResponse{}, err
	}

	s.logger.Info().
		Uint("experience_id", experience.ID).
		Uint("author_id", actor.ID).
		Str("status", experience.Status).
		Msg("experience created")
	s.recorder.record(ctx, actor, experience, action, "", now, map[string]interface{}{"created": true})

	return s.respond(ctx, experience.ID)
}

func (s *experienceService) Update(ctx context.Context, actor Actor, id uint, payload dto.ExperienceRequest) (dto.ExperienceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "experience.update")
	span.SetAttributes(
		attribute.Int64("experience.id", int64(id)),
		attribute.Int64("experience.actor_id", int64(actor.ID)),
		attribute.String("experience.action", payload.Action),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		failSpan(span, err, "validation_failed")
		return dto.ExperienceResponse{}, err
	}

	experience, err := loadExperience(ctx, s.experiences, id)
	if err != nil {
		failSpan(span, err, "lookup_failed")
		return dto.ExperienceResponse{}, err
	}
	if !canEdit(actor, experience) {
		failSpan(span, ErrExperienceNotFound, "forbidden")
		return dto.ExperienceResponse{}, ErrExperienceNotFound
	}
	if err := checkVersion(payload.Version, experience); err != nil {
		failSpan(span, err, "stale_version")
		return dto.ExperienceResponse{}, err
	}

	from := experience.Status
	nextApprover, err := s.apply(ctx, &experience, payload)
	if err != nil {
		failSpan(span, err, "invalid_choices")
		return dto.ExperienceResponse{}, err
	}

	now := s.now()
	var action string
	if isOwner(actor, experience) {
		if payload.Action == dto.ExperienceActionSave && from != models.ExperienceStatusDraft && from != models.ExperienceStatusDenied {
			err = &ValidationError{Messages: []string{MsgSaveOnlyDraft}}
		} else {
			action, err = s.transitionAsOwner(&experience, nextApprover, payload.Action, now)
		}
	} else {
		action, err = s.editAsReviewer(&experience, nextApprover, payload.Action, now)
	}
	if err != nil {
		failSpan(span, err, "rules_failed")
		return dto.ExperienceResponse{}, err
	}

	if err := persistUpdate(ctx, s.experiences, &experience, repository.ExperienceUpdate{At: now, ReplaceAssociations: true}); err != nil {
		failSpan(span, err, "update_failed")
		return dto.ExperienceResponse{}, err
	}

	s.logger.Info().
		Uint("experience_id", experience.ID).
		Str("from", from).
		Str("to", experience.Status).
		Msg("experience updated")
	s.recorder.record(ctx, actor, experience, action, from, now, nil)

	return s.respond(ctx, experience.ID)
}

func (s *experienceService) Get(ctx context.Context, actor Actor, id uint) (dto.ExperienceResponse, error) {
	experience, err := loadExperience(ctx, s.experiences, id)
	if err != nil {
		return dto.ExperienceResponse{}, err
	}
	if !canView(actor, experience) {
		return dto.ExperienceResponse{}, ErrExperienceNotFound
	}
	return dto.NewExperienceResponse(experience, s.now()), nil
}

func (s *experienceService) Cancel(ctx context.Context, actor Actor, id uint, version uint) (dto.ExperienceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "experience.cancel")
	span.SetAttributes(attribute.Int64("experience.id", int64(id)))
	defer span.End()

	experience, err := loadExperience(ctx, s.experiences, id)
	if err != nil {
		failSpan(span, err, "lookup_failed")
		return dto.ExperienceResponse{}, err
	}
	if !canCancel(actor, experience) {
		failSpan(span, ErrExperienceNotFound, "forbidden")
		return dto.ExperienceResponse{}, ErrExperienceNotFound
	}
	if err := checkVersion(version, experience); err != nil {
		failSpan(span, err, "stale_version")
		return dto.ExperienceResponse{}, err
	}

	now := s.now()
	from := experience.Status
	experience.Status = models.ExperienceStatusCancelled
	if err := persistUpdate(ctx, s.experiences, &experience, repository.ExperienceUpdate{At: now}); err != nil {
		failSpan(span, err, "update_failed")
		return dto.ExperienceResponse{}, err
	}

	s.logger.Info().Uint("experience_id", experience.ID).Msg("draft cancelled")
	s.recorder.record(ctx, actor, experience, ActionCancelled, from, now, nil)

	return s.respond(ctx, experience.ID)
}

func (s *experienceService) Conclude(ctx context.Context, actor Actor, id uint, payload dto.ConclusionRequest) (dto.ExperienceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "experience.conclude")
	span.SetAttributes(
		attribute.Int64("experience.id", int64(id)),
		attribute.Int64("experience.actor_id", int64(actor.ID)),
	)
	defer span.End()

	experience, err := loadExperience(ctx, s.experiences, id)
	if err != nil {
		failSpan(span, err, "lookup_failed")
		return dto.ExperienceResponse{}, err
	}

	now := s.now()
	if !canConclude(actor, experience) || !experience.NeedsEvaluation(now) {
		failSpan(span, ErrExperienceNotFound, "forbidden")
		return dto.ExperienceResponse{}, ErrExperienceNotFound
	}
	if err := checkVersion(payload.Version, experience); err != nil {
		failSpan(span, err, "stale_version")
		return dto.ExperienceResponse{}, err
	}

	candidate := Candidate{Attendance: payload.Attendance, Conclusion: payload.Conclusion}
	if err := ValidateConclusion(candidate); err != nil {
		failSpan(span, err, "rules_failed")
		return dto.ExperienceResponse{}, err
	}

	from := experience.Status
	experience.Attendance = payload.Attendance
	experience.Conclusion = strings.TrimSpace(payload.Conclusion)
	experience.Status = models.ExperienceStatusCompleted
	experience.NextApproverID = nil

	if err := persistUpdate(ctx, s.experiences, &experience, repository.ExperienceUpdate{At: now}); err != nil {
		failSpan(span, err, "update_failed")
		return dto.ExperienceResponse{}, err
	}

	s.logger.Info().Uint("experience_id", experience.ID).Int("attendance", *payload.Attendance).Msg("experience concluded")
	s.recorder.record(ctx, actor, experience, ActionConcluded, from, now, map[string]interface{}{
		"attendance": *payload.Attendance,
	})

	return s.respond(ctx, experience.ID)
}

func (s *experienceService) History(ctx context.Context, actor Actor, id uint) ([]dto.ActivityResponse, error) {
	experience, err := loadExperience(ctx, s.experiences, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, experience) {
		return nil, ErrExperienceNotFound
	}
	return s.activity.ExperienceHistory(ctx, experience.ID)
}

// transitionAsOwner applies the author or planner save and submit transitions.
func (s *experienceService) transitionAsOwner(experience *models.Experience, nextApprover *models.User, action string, now time.Time) (string, error) {
	candidate := candidateFrom(*experience, nextApprover)

	if action == dto.ExperienceActionSave {
		if err := ValidateDraft(candidate, now); err != nil {
			return "", err
		}
		experience.Status = models.ExperienceStatusDraft
		return ActionSaved, nil
	}

	if err := ValidateSubmission(&candidate, now, false); err != nil {
		return "", err
	}
	experience.Conclusion = candidate.Conclusion

	if candidate.NeedsVerification() {
		experience.Status = models.ExperienceStatusPending
	} else {
		experience.Status = models.ExperienceStatusCompleted
		experience.NextApproverID = nil
	}
	return ActionSubmitted, nil
}

// editAsReviewer applies changes made by hallstaff reviewing an experience they
// do not own. The status is preserved and the supervisor may be left empty.
func (s *experienceService) editAsReviewer(experience *models.Experience, nextApprover *models.User, action string, now time.Time) (string, error) {
	if action != dto.ExperienceActionSubmit {
		return "", &ValidationError{Messages: []string{MsgApprovalEditSubmits}}
	}

	candidate := candidateFrom(*experience, nextApprover)
	if err := ValidateSubmission(&candidate, now, true); err != nil {
		return "", err
	}
	experience.Conclusion = candidate.Conclusion
	return ActionEdited, nil
}

// apply copies the payload onto the experience and resolves every referenced record.
func (s *experienceService) apply(ctx context.Context, experience *models.Experience, payload dto.ExperienceRequest) (*models.User, error) {
	experience.Name = strings.TrimSpace(payload.Name)
	experience.Description = payload.Description
	experience.Goals = payload.Goals
	experience.StartDatetime = payload.StartDatetime
	experience.EndDatetime = payload.EndDatetime
	experience.Audience = strings.TrimSpace(payload.Audience)
	experience.Attendance = payload.Attendance
	experience.Guest = payload.Guest
	experience.GuestOffice = payload.GuestOffice
	experience.Funds = payload.Funds
	if experience.Funds == "" {
		experience.Funds = models.FundsNotNeeded
	}
	experience.Conclusion = payload.Conclusion
	experience.TypeID = payload.TypeID
	experience.NextApproverID = payload.NextApproverID

	var messages []string

	experience.Type = nil
	if payload.TypeID != nil {
		typ, err := s.references.GetType(ctx, *payload.TypeID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			messages = append(messages, MsgInvalidType)
		case err != nil:
			return nil, err
		default:
			experience.Type = &typ
		}
	}

	subtypeIDs := uniqueIDs(payload.SubtypeIDs)
	subtypes, err := s.references.SubtypesByIDs(ctx, subtypeIDs)
	if err != nil {
		return nil, err
	}
	if len(subtypes) != len(subtypeIDs) {
		messages = append(messages, MsgInvalidSubtypes)
	}
	experience.Subtypes = subtypes

	keywordIDs := uniqueIDs(payload.KeywordIDs)
	keywords, err := s.references.KeywordsByIDs(ctx, keywordIDs)
	if err != nil {
		return nil, err
	}
	if len(keywords) != len(keywordIDs) {
		messages = append(messages, MsgInvalidKeywords)
	}
	experience.Keywords = keywords

	sectionIDs := uniqueIDs(payload.RecognitionIDs)
	sections, err := s.references.SectionsByIDs(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	if len(sections) != len(sectionIDs) {
		messages = append(messages, MsgInvalidRecognition)
	}
	experience.Recognition = sections

	plannerIDs := uniqueIDs(payload.PlannerIDs)
	planners, err := s.users.ListByIDs(ctx, plannerIDs)
	if err != nil {
		return nil, err
	}
	if len(planners) != len(plannerIDs) {
		messages = append(messages, MsgInvalidPlanners)
	}
	experience.Planners = planners

	var nextApprover *models.User
	experience.NextApprover = nil
	if payload.NextApproverID != nil {
		user, err := s.users.GetByID(ctx, *payload.NextApproverID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			messages = append(messages, MsgInvalidSupervisor)
		case err != nil:
			return nil, err
		default:
			nextApprover = &user
			experience.NextApprover = &user
		}
	}

	if len(messages) > 0 {
		return nil, &ValidationError{Messages: messages}
	}
	return nextApprover, nil
}

func (s *experienceService) respond(ctx context.Context, id uint) (dto.ExperienceResponse, error) {
	experience, err := loadExperience(ctx, s.experiences, id)
	if err != nil {
		return dto.ExperienceResponse{}, err
	}
	return dto.NewExperienceResponse(experience, s.now()), nil
}

func candidateFrom(experience models.Experience, nextApprover *models.User) Candidate {
	return Candidate{
		Name:          experience.Name,
		Description:   experience.Description,
		TypeID:        experience.TypeID,
		Subtypes:      experience.Subtypes,
		StartDatetime: experience.StartDatetime,
		EndDatetime:   experience.EndDatetime,
		Audience:      experience.Audience,
		Attendance:    experience.Attendance,
		NextApprover:  nextApprover,
		Conclusion:    experience.Conclusion,
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
