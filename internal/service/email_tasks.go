package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
	"github.com/noah-isme/exdb-api/pkg/mailer"
)

// Email task identifiers stored on EmailTask rows.
const (
	TaskDailyDigest        = "DailyDigest"
	TaskStatusUpdate       = "ExperienceStatusUpdate"
	TaskEvaluationReminder = "EvaluateExperience"
)

// EmailSettings configures the periodic email tasks.
type EmailSettings struct {
	SubjectPrefix    string
	URLPrefix        string
	DigestHour       int
	DigestWindow     time.Duration
	EvaluationPeriod time.Duration
	Location         *time.Location
}

// EmailTaskRunner is a periodic notification job.
type EmailTaskRunner interface {
	Package() string
	Name() string
	Send(ctx context.Context) (int, error)
}

// EmailTaskDeps are the collaborators shared by every email task.
type EmailTaskDeps struct {
	Experiences repository.ExperienceRepository
	Addresses   AddressBook
	Sender      mailer.Sender
	Settings    EmailSettings
	Logger      zerolog.Logger
	Now         func() time.Time
}

func (d EmailTaskDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d EmailTaskDeps) location() *time.Location {
	if d.Settings.Location != nil {
		return d.Settings.Location
	}
	return time.UTC
}

func (d EmailTaskDeps) subject(text string) string {
	if d.Settings.SubjectPrefix == "" {
		return text
	}
	return d.Settings.SubjectPrefix + " " + text
}

// EmailTaskRegistry lists every email task in execution order.
func EmailTaskRegistry(deps EmailTaskDeps) []EmailTaskRunner {
	return []EmailTaskRunner{
		&dailyDigestTask{deps: deps, logger: deps.Logger.With().Str("component", "daily_digest").Logger()},
		&statusUpdateTask{deps: deps, logger: deps.Logger.With().Str("component", "status_update").Logger()},
		&evaluationReminderTask{deps: deps, logger: deps.Logger.With().Str("component", "evaluation_reminder").Logger()},
	}
}

type digestItem struct {
	ID     uint
	Name   string
	Author string
	When   string
}

type digestSection struct {
	Label       string
	Experiences []digestItem
}

func newDigestItem(experience models.Experience, location *time.Location) digestItem {
	item := digestItem{ID: experience.ID, Name: experience.Name, Author: experience.Author.FullName()}
	if experience.StartDatetime != nil {
		item.When = experience.StartDatetime.In(location).Format("Jan 2, 2006 3:04 PM")
	}
	return item
}

type dailyDigestTask struct {
	deps   EmailTaskDeps
	logger zerolog.Logger
}

func (t *dailyDigestTask) Package() string { return TaskDailyDigest }
func (t *dailyDigestTask) Name() string    { return "Daily Digest" }

// IsTimeToSend reports whether instant falls in the daily send window.
func (t *dailyDigestTask) IsTimeToSend(instant time.Time) bool {
	local := instant.In(t.deps.location())
	if local.Hour() != t.deps.Settings.DigestHour {
		return false
	}
	offset := time.Duration(local.Minute())*time.Minute + time.Duration(local.Second())*time.Second
	return offset < t.deps.Settings.DigestWindow
}

func (t *dailyDigestTask) Send(ctx context.Context) (int, error) {
	now := t.deps.now()
	if !t.IsTimeToSend(now) {
		return 0, nil
	}

	pending, err := t.deps.Experiences.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	awaiting, err := t.deps.Experiences.ListAwaitingEvaluation(ctx, now)
	if err != nil {
		return 0, err
	}

	type digest struct {
		user       models.User
		pending    []models.Experience
		evaluation []models.Experience
	}
	digests := map[uint]*digest{}
	entry := func(user models.User) *digest {
		d, ok := digests[user.ID]
		if !ok {
			d = &digest{user: user}
			digests[user.ID] = d
		}
		return d
	}

	for _, experience := range pending {
		if experience.NextApprover == nil {
			continue
		}
		d := entry(*experience.NextApprover)
		d.pending = append(d.pending, experience)
	}
	for _, experience := range awaiting {
		seen := map[uint]bool{}
		for _, approval := range experience.Approvals {
			if seen[approval.ApproverID] {
				continue
			}
			seen[approval.ApproverID] = true
			d := entry(approval.Approver)
			d.evaluation = append(d.evaluation, experience)
		}
	}

	userIDs := make([]uint, 0, len(digests))
	for id := range digests {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	location := t.deps.location()
	messages := make([]*mailer.Message, 0, len(userIDs))
	for _, id := range userIDs {
		d := digests[id]
		address := t.deps.Addresses.Lookup(ctx, d.user)
		if address == "" {
			t.logger.Warn().Uint("user_id", id).Msg("skipping digest for user without address")
			continue
		}

		sections := []digestSection{
			{Label: models.StatusLabel(models.ExperienceStatusPending)},
			{Label: models.StatusLabel(models.ExperienceStatusNeedsEvaluation)},
		}
		for _, experience := range d.pending {
			sections[0].Experiences = append(sections[0].Experiences, newDigestItem(experience, location))
		}
		for _, experience := range d.evaluation {
			sections[1].Experiences = append(sections[1].Experiences, newDigestItem(experience, location))
		}

		messages = append(messages, &mailer.Message{
			To:           mailer.Addresses(address),
			Subject:      t.deps.subject("Daily Digest"),
			TemplateName: "daily_digest",
			TemplateData: map[string]interface{}{
				"Recipient": d.user.FullName(),
				"Count":     len(d.pending) + len(d.evaluation),
				"Sections":  sections,
				"URLPrefix": t.deps.Settings.URLPrefix,
			},
		})
	}

	if len(messages) == 0 {
		return 0, nil
	}
	sent, err := t.deps.Sender.Send(ctx, messages...)
	if err != nil {
		return sent, fmt.Errorf("daily digest: %w", err)
	}
	t.logger.Info().Int("emails", sent).Msg("daily digest sent")
	return sent, nil
}

type statusUpdateTask struct {
	deps   EmailTaskDeps
	logger zerolog.Logger
}

func (t *statusUpdateTask) Package() string { return TaskStatusUpdate }
func (t *statusUpdateTask) Name() string    { return "Status Update" }

// Send emails each author whose experience was approved or denied. The flag
// of an experience is cleared only after its own email went out.
func (t *statusUpdateTask) Send(ctx context.Context) (int, error) {
	experiences, err := t.deps.Experiences.ListAuthorEmailDue(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, experience := range experiences {
		address := t.deps.Addresses.Lookup(ctx, experience.Author)
		if address != "" {
			msg := &mailer.Message{
				To:           mailer.Addresses(address),
				Subject:      t.deps.subject("Experience status updated"),
				TemplateName: "status_update",
				TemplateData: map[string]interface{}{
					"Recipient": experience.Author.FullName(),
					"URLPrefix": t.deps.Settings.URLPrefix,
					"Experience": map[string]interface{}{
						"ID":     experience.ID,
						"Name":   experience.Name,
						"Status": models.StatusLabel(experience.Status),
					},
				},
			}
			if _, err := t.deps.Sender.Send(ctx, msg); err != nil {
				return sent, fmt.Errorf("status update for experience %d: %w", experience.ID, err)
			}
			sent++
		} else {
			t.logger.Warn().Uint("experience_id", experience.ID).Msg("author has no address, clearing flag")
		}

		if err := t.deps.Experiences.ClearAuthorEmail(ctx, experience.ID); err != nil {
			return sent, err
		}
	}

	if sent > 0 {
		t.logger.Info().Int("emails", sent).Msg("status updates sent")
	}
	return sent, nil
}

type evaluationReminderTask struct {
	deps   EmailTaskDeps
	logger zerolog.Logger
}

func (t *evaluationReminderTask) Package() string { return TaskEvaluationReminder }
func (t *evaluationReminderTask) Name() string    { return "Evaluation Email" }

// Send reminds the author and planners of every ended, unevaluated experience
// not reminded within the evaluation period, stamping each after its email.
func (t *evaluationReminderTask) Send(ctx context.Context) (int, error) {
	now := t.deps.now()
	cutoff := now.Add(-t.deps.Settings.EvaluationPeriod)

	experiences, err := t.deps.Experiences.ListEvaluationEmailDue(ctx, now, cutoff)
	if err != nil {
		return 0, err
	}

	location := t.deps.location()
	sent := 0
	for _, experience := range experiences {
		raw := make([]string, 0, len(experience.Planners)+1)
		for _, planner := range experience.Planners {
			raw = append(raw, t.deps.Addresses.Lookup(ctx, planner))
		}
		raw = append(raw, t.deps.Addresses.Lookup(ctx, experience.Author))
		recipients := mailer.Addresses(raw...)

		if len(recipients) > 0 {
			when := ""
			if experience.EndDatetime != nil {
				when = experience.EndDatetime.In(location).Format("Jan 2, 2006 3:04 PM")
			}
			msg := &mailer.Message{
				To:           recipients,
				Subject:      t.deps.subject("Experience needs evaluation"),
				TemplateName: "evaluation_reminder",
				TemplateData: map[string]interface{}{
					"URLPrefix": t.deps.Settings.URLPrefix,
					"Experience": map[string]interface{}{
						"ID":   experience.ID,
						"Name": experience.Name,
						"When": when,
					},
				},
			}
			if _, err := t.deps.Sender.Send(ctx, msg); err != nil {
				return sent, fmt.Errorf("evaluation reminder for experience %d: %w", experience.ID, err)
			}
			sent++
		}

		if err := t.deps.Experiences.StampEvaluationEmail(ctx, experience.ID, now); err != nil {
			return sent, err
		}
	}

	if sent > 0 {
		t.logger.Info().Int("emails", sent).Msg("evaluation reminders sent")
	}
	return sent, nil
}
