package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// ApprovalService applies approver decisions to pending experiences.
type ApprovalService interface {
	Decide(ctx context.Context, actor Actor, id uint, payload dto.ApprovalRequest) (dto.ExperienceResponse, error)
}

type approvalService struct {
	experiences repository.ExperienceRepository
	users       repository.UserRepository
	validator   *validator.Validate
	recorder    transitionRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewApprovalService constructs the approval workflow service.
func NewApprovalService(
	experiences repository.ExperienceRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	events EventPublisher,
	cache DashboardInvalidator,
	logger zerolog.Logger,
) ApprovalService {
	serviceLogger := logger.With().Str("component", "approval_service").Logger()
	return &approvalService{
		experiences: experiences,
		users:       users,
		validator:   validate,
		recorder: transitionRecorder{
			activity: activity,
			events:   events,
			cache:    cache,
			logger:   serviceLogger,
		},
		sanitizer: bluemonday.StrictPolicy(),
		logger:    serviceLogger,
		tracer:    otel.Tracer("github.com/noah-isme/exdb-api/internal/service/approval"),
		now:       time.Now,
	}
}

func (s *approvalService) Decide(ctx context.Context, actor Actor, id uint, payload dto.ApprovalRequest) (dto.ExperienceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "experience.decide")
	span.SetAttributes(
		attribute.Int64("experience.id", int64(id)),
		attribute.Int64("experience.actor_id", int64(actor.ID)),
		attribute.String("experience.decision", payload.Action),
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
	if !canDecide(actor, experience) {
		failSpan(span, ErrExperienceNotFound, "forbidden")
		return dto.ExperienceResponse{}, ErrExperienceNotFound
	}
	if err := checkVersion(payload.Version, experience); err != nil {
		failSpan(span, err, "stale_version")
		return dto.ExperienceResponse{}, err
	}

	now := s.now()
	from := experience.Status
	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	update := repository.ExperienceUpdate{At: now}
	if message != "" {
		update.Comment = &models.ExperienceComment{AuthorID: actor.ID, Message: message, Timestamp: now}
	}

	var action string
	extra := map[string]interface{}{}

	switch payload.Action {
	case dto.ApprovalActionApprove:
		if payload.NextApproverID != nil && *payload.NextApproverID != actor.ID {
			target, err := s.forwardTarget(ctx, *payload.NextApproverID)
			if err != nil {
				failSpan(span, err, "invalid_forward")
				return dto.ExperienceResponse{}, err
			}
			experience.NextApproverID = &target.ID
			action = ActionForwarded
			extra["forwarded_to"] = target.ID
		} else {
			experience.Status = models.ExperienceStatusApproved
			experience.NextApproverID = nil
			experience.NeedsAuthorEmail = true
			action = ActionApproved
		}
		update.Approval = &models.ExperienceApproval{ApproverID: actor.ID, Timestamp: now}
	case dto.ApprovalActionDeny:
		if message == "" {
			err := &ValidationError{Messages: []string{MsgDenialComment}}
			failSpan(span, err, "comment_required")
			return dto.ExperienceResponse{}, err
		}
		experience.Status = models.ExperienceStatusDenied
		experience.NextApproverID = &actor.ID
		experience.NeedsAuthorEmail = true
		action = ActionDenied
	case dto.ApprovalActionDelete:
		experience.Status = models.ExperienceStatusCancelled
		experience.NextApproverID = nil
		action = ActionDeleted
	}

	if err := persistUpdate(ctx, s.experiences, &experience, update); err != nil {
		failSpan(span, err, "update_failed")
		return dto.ExperienceResponse{}, err
	}

	s.logger.Info().
		Uint("experience_id", experience.ID).
		Uint("approver_id", actor.ID).
		Str("decision", action).
		Str("status", experience.Status).
		Msg("approval decision applied")
	s.recorder.record(ctx, actor, experience, action, from, now, extra)

	updated, err := loadExperience(ctx, s.experiences, experience.ID)
	if err != nil {
		return dto.ExperienceResponse{}, err
	}
	return dto.NewExperienceResponse(updated, now), nil
}

// forwardTarget resolves the approver a pending experience is routed to next.
func (s *approvalService) forwardTarget(ctx context.Context, id uint) (models.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, &ValidationError{Messages: []string{MsgInvalidSupervisor}}
		}
		return models.User{}, err
	}
	if !target.IsHallstaff() || !target.IsActive {
		return models.User{}, &ValidationError{Messages: []string{MsgSupervisorNotApprover}}
	}
	return target, nil
}
