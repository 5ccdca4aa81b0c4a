package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/observability"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// Transition actions recorded in the activity log.
const (
	ActionCreated   = "experience.created"
	ActionSaved     = "experience.saved"
	ActionSubmitted = "experience.submitted"
	ActionEdited    = "experience.edited"
	ActionApproved  = "experience.approved"
	ActionForwarded = "experience.forwarded"
	ActionDenied    = "experience.denied"
	ActionDeleted   = "experience.deleted"
	ActionCancelled = "experience.cancelled"
	ActionConcluded = "experience.concluded"
)

// DashboardInvalidator drops cached dashboards after an experience changes.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// transitionRecorder fans a persisted change out to the audit log, metrics,
// the event bus and the dashboard cache. Failures are logged only.
type transitionRecorder struct {
	activity ActivityRecorder
	events   EventPublisher
	cache    DashboardInvalidator
	logger   zerolog.Logger
}

func (r transitionRecorder) record(ctx context.Context, actor Actor, experience models.Experience, action, from string, at time.Time, extra map[string]interface{}) {
	if from != experience.Status {
		observability.ExperienceTransitions().WithLabelValues(labelStatus(from), experience.Status).Inc()
	}

	if r.activity != nil {
		metadata := map[string]interface{}{
			"from":    from,
			"to":      experience.Status,
			"version": experience.Version,
		}
		for key, value := range extra {
			metadata[key] = value
		}
		id := experience.ID
		if _, err := r.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     action,
			EntityType: experienceEntityType,
			EntityID:   &id,
			Metadata:   metadata,
		}); err != nil {
			r.logger.Warn().Err(err).Uint("experience_id", experience.ID).Msg("failed to record activity")
		}
	}

	if r.events != nil {
		r.events.PublishExperienceEvent(ctx, newExperienceEvent(experience, actor, action, from, at))
	}

	if r.cache != nil {
		r.cache.Invalidate(ctx)
	}
}

func labelStatus(status string) string {
	if status == "" {
		return "new"
	}
	return status
}

// loadExperience fetches an experience, mapping a missing row to ErrExperienceNotFound.
func loadExperience(ctx context.Context, repo repository.ExperienceRepository, id uint) (models.Experience, error) {
	experience, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Experience{}, ErrExperienceNotFound
		}
		return models.Experience{}, err
	}
	return experience, nil
}

// persistUpdate writes the experience and maps a lost race to ErrTransitionConflict.
func persistUpdate(ctx context.Context, repo repository.ExperienceRepository, experience *models.Experience, update repository.ExperienceUpdate) error {
	if err := repo.Update(ctx, experience, update); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrTransitionConflict
		}
		return err
	}
	return nil
}

// checkVersion rejects a request made against a stale copy of the experience.
func checkVersion(expected uint, experience models.Experience) error {
	if expected != 0 && expected != experience.Version {
		return ErrTransitionConflict
	}
	return nil
}

func failSpan(span trace.Span, err error, status string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
}
