package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/models"
)

// ExperienceEvent is published whenever an experience changes status.
type ExperienceEvent struct {
	ID           string    `json:"id"`
	ExperienceID uint      `json:"experience_id"`
	Name         string    `json:"name"`
	Action       string    `json:"action"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	ActorID      uint      `json:"actor_id"`
	AuthorID     uint      `json:"author_id"`
	NextApprover *uint     `json:"next_approver_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher broadcasts experience events to other services.
type EventPublisher interface {
	PublishExperienceEvent(ctx context.Context, event ExperienceEvent)
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewEventPublisher publishes events on "<base>.experiences.<to>" subjects. A
// nil connection yields a publisher that only logs.
func NewEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	base := strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), ".")
	if base == "" {
		base = "exdb"
	}
	return &natsEventPublisher{
		conn:    conn,
		subject: base + ".experiences",
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) PublishExperienceEvent(ctx context.Context, event ExperienceEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	log := p.logger.Debug().
		Str("event_id", event.ID).
		Uint("experience_id", event.ExperienceID).
		Str("from", event.From).
		Str("to", event.To)

	if p.conn == nil {
		log.Msg("experience event (no broker)")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode experience event")
		return
	}

	subject := p.subject + "." + event.To
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish experience event")
		return
	}
	log.Str("subject", subject).Msg("experience event published")
}

func newExperienceEvent(experience models.Experience, actor Actor, action, from string, at time.Time) ExperienceEvent {
	return ExperienceEvent{
		ID:           uuid.NewString(),
		ExperienceID: experience.ID,
		Name:         experience.Name,
		Action:       action,
		From:         from,
		To:           experience.Status,
		ActorID:      actor.ID,
		AuthorID:     experience.AuthorID,
		NextApprover: experience.NextApproverID,
		OccurredAt:   at,
	}
}
