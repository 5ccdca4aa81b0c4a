package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/pkg/mailer"
)

type recordingSender struct {
	messages []*mailer.Message
	// failAt is the 1-based delivery attempt that fails; zero never fails.
	failAt   int
	attempts int
}

func (s *recordingSender) Send(ctx context.Context, messages ...*mailer.Message) (int, error) {
	sent := 0
	for _, msg := range messages {
		s.attempts++
		if s.failAt > 0 && s.attempts == s.failAt {
			return sent, errors.New("smtp unavailable")
		}
		s.messages = append(s.messages, msg)
		sent++
	}
	return sent, nil
}

func (f *workflowFixture) emailDeps(sender mailer.Sender, now func() time.Time) EmailTaskDeps {
	return EmailTaskDeps{
		Experiences: f.experiences,
		Addresses:   NewAddressBook(nil, testLogger()),
		Sender:      sender,
		Settings: EmailSettings{
			SubjectPrefix:    "[EXDB]",
			URLPrefix:        "https://exdb.example.edu",
			DigestHour:       9,
			DigestWindow:     15 * time.Minute,
			EvaluationPeriod: 72 * time.Hour,
			Location:         time.UTC,
		},
		Logger: testLogger(),
		Now:    now,
	}
}

func registryTask(t *testing.T, registry []EmailTaskRunner, pkg string) EmailTaskRunner {
	t.Helper()
	for _, runner := range registry {
		if runner.Package() == pkg {
			return runner
		}
	}
	t.Fatalf("task %s not registered", pkg)
	return nil
}

func TestStatusUpdateKeepsProgressOnFailure(t *testing.T) {
	f := newWorkflowFixture(t)
	first := f.submitPending(t)
	second := f.submitPending(t)
	f.approve(t, first.ID)
	_, err := f.approvals.Decide(context.Background(), actorOf(f.staff), second.ID, dto.ApprovalRequest{
		Action:  dto.ApprovalActionDeny,
		Message: "Needs a budget",
	})
	require.NoError(t, err)

	failing := &recordingSender{failAt: 2}
	task := registryTask(t, EmailTaskRegistry(f.emailDeps(failing, func() time.Time { return f.now })), TaskStatusUpdate)

	sent, err := task.Send(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, sent)

	stored, err := f.experiences.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	require.False(t, stored.NeedsAuthorEmail)
	stored, err = f.experiences.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	require.True(t, stored.NeedsAuthorEmail)

	healthy := &recordingSender{}
	task = registryTask(t, EmailTaskRegistry(f.emailDeps(healthy, func() time.Time { return f.now })), TaskStatusUpdate)
	sent, err = task.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, healthy.messages, 1)
	require.Equal(t, "[EXDB] Experience status updated", healthy.messages[0].Subject)
	require.Equal(t, f.author.Email, healthy.messages[0].To[0].Address)

	sent, err = task.Send(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)
}

func TestStatusUpdateClearsFlagWithoutAddress(t *testing.T) {
	f := newWorkflowFixture(t)
	created := f.submitPending(t)
	f.approve(t, created.ID)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.author.ID).Update("email", "").Error)

	sender := &recordingSender{}
	task := registryTask(t, EmailTaskRegistry(f.emailDeps(sender, func() time.Time { return f.now })), TaskStatusUpdate)
	sent, err := task.Send(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)

	stored, err := f.experiences.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, stored.NeedsAuthorEmail)
}

func TestDailyDigestWindow(t *testing.T) {
	f := newWorkflowFixture(t)
	f.submitPending(t)

	inWindow := time.Date(2024, time.March, 11, 9, 5, 0, 0, time.UTC)
	outside := time.Date(2024, time.March, 11, 9, 20, 0, 0, time.UTC)

	sender := &recordingSender{}
	digest := registryTask(t, EmailTaskRegistry(f.emailDeps(sender, func() time.Time { return outside })), TaskDailyDigest)
	sent, err := digest.Send(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)

	digest = registryTask(t, EmailTaskRegistry(f.emailDeps(sender, func() time.Time { return inWindow })), TaskDailyDigest)
	sent, err = digest.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, sender.messages, 1)
	require.Equal(t, f.staff.Email, sender.messages[0].To[0].Address)

	data, ok := sender.messages[0].TemplateData.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, 1, data["Count"])
}

func TestDailyDigestIsTimeToSend(t *testing.T) {
	task := &dailyDigestTask{deps: EmailTaskDeps{Settings: EmailSettings{DigestHour: 9, DigestWindow: 15 * time.Minute}}}

	require.True(t, task.IsTimeToSend(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	require.True(t, task.IsTimeToSend(time.Date(2024, 1, 1, 9, 14, 59, 0, time.UTC)))
	require.False(t, task.IsTimeToSend(time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)))
	require.False(t, task.IsTimeToSend(time.Date(2024, 1, 1, 8, 59, 0, 0, time.UTC)))
}

func TestEvaluationReminderStampsAndWaitsForPeriod(t *testing.T) {
	f := newWorkflowFixture(t)
	created := f.submitPending(t)
	approved := f.approve(t, created.ID)

	current := approved.EndDatetime.Add(time.Hour)
	sender := &recordingSender{}
	task := registryTask(t, EmailTaskRegistry(f.emailDeps(sender, func() time.Time { return current })), TaskEvaluationReminder)

	sent, err := task.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	// author and planner share a single message
	require.Len(t, sender.messages[0].To, 2)

	sent, err = task.Send(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)

	current = current.Add(72*time.Hour + time.Minute)
	sent, err = task.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, sender.messages, 2)
}

func TestEvaluationReminderKeepsProgressOnFailure(t *testing.T) {
	f := newWorkflowFixture(t)
	first := f.approve(t, f.submitPending(t).ID)
	second := f.approve(t, f.submitPending(t).ID)
	current := first.EndDatetime.Add(time.Hour)
	clock := func() time.Time { return current }

	failing := &recordingSender{failAt: 2}
	task := registryTask(t, EmailTaskRegistry(f.emailDeps(failing, clock)), TaskEvaluationReminder)
	sent, err := task.Send(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, sent)

	stamps := []struct {
		id      uint
		stamped bool
	}{
		{first.ID, true},
		{second.ID, false},
	}
	for _, tc := range stamps {
		stored, err := f.experiences.GetByID(context.Background(), tc.id)
		require.NoError(t, err)
		if tc.stamped {
			require.NotNil(t, stored.LastEvaluationEmailDatetime)
			require.True(t, stored.LastEvaluationEmailDatetime.Equal(current))
		} else {
			require.Nil(t, stored.LastEvaluationEmailDatetime)
		}
	}

	healthy := &recordingSender{}
	task = registryTask(t, EmailTaskRegistry(f.emailDeps(healthy, clock)), TaskEvaluationReminder)
	sent, err = task.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, healthy.messages, 1)

	data, ok := healthy.messages[0].TemplateData.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, second.ID, data["Experience"].(map[string]interface{})["ID"])
}

func TestDailyDigestRepeatsDeterministically(t *testing.T) {
	f := newWorkflowFixture(t)
	f.submitPending(t)
	f.submitPending(t)
	inWindow := time.Date(2024, time.March, 11, 9, 1, 0, 0, time.UTC)

	sender := &recordingSender{}
	digest := registryTask(t, EmailTaskRegistry(f.emailDeps(sender, func() time.Time { return inWindow })), TaskDailyDigest)

	runs := []struct {
		name     string
		sent     int
		messages int
	}{
		{"first run", 1, 1},
		{"second run", 1, 2},
	}
	for _, run := range runs {
		sent, err := digest.Send(context.Background())
		require.NoError(t, err, run.name)
		require.Equal(t, run.sent, sent, run.name)
		require.Len(t, sender.messages, run.messages, run.name)
	}

	for _, msg := range sender.messages {
		require.Equal(t, f.staff.Email, msg.To[0].Address)
		data, ok := msg.TemplateData.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, 2, data["Count"])
	}
}
