package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

type stubExperienceRepo struct {
	repository.ExperienceRepository
	related      []models.Experience
	relatedCalls int
}

func (s *stubExperienceRepo) ListRelated(ctx context.Context, userID uint) ([]models.Experience, error) {
	s.relatedCalls++
	return s.related, nil
}

var testWindows = DashboardWindows{
	HallstaffAhead: 7 * 24 * time.Hour,
	RequesterAhead: 3 * 24 * time.Hour,
	Limit:          2,
}

func dashboardExperiences(now time.Time) []models.Experience {
	const (
		userID  = 1
		staffID = 2
		otherID = 3
	)
	planner := models.User{ID: userID}
	return []models.Experience{
		{ID: 1, Name: "my draft", Status: models.ExperienceStatusDraft, AuthorID: userID},
		{ID: 2, Name: "planned draft", Status: models.ExperienceStatusDraft, AuthorID: otherID, Planners: []models.User{planner}},
		{ID: 3, Name: "pending", Status: models.ExperienceStatusPending, AuthorID: userID, NextApproverID: ptrUint(staffID),
			StartDatetime: ptrTime(now.Add(48 * time.Hour))},
		{ID: 4, Name: "ended", Status: models.ExperienceStatusApproved, AuthorID: otherID, Planners: []models.User{planner},
			StartDatetime: ptrTime(now.Add(-3 * time.Hour)), EndDatetime: ptrTime(now.Add(-time.Hour))},
		{ID: 5, Name: "soon", Status: models.ExperienceStatusApproved, AuthorID: userID,
			StartDatetime: ptrTime(now.Add(24 * time.Hour)), EndDatetime: ptrTime(now.Add(26 * time.Hour))},
		{ID: 6, Name: "later", Status: models.ExperienceStatusApproved, AuthorID: otherID,
			StartDatetime: ptrTime(now.Add(5 * 24 * time.Hour)), EndDatetime: ptrTime(now.Add(5*24*time.Hour + time.Hour))},
		{ID: 7, Name: "cancelled", Status: models.ExperienceStatusCancelled, AuthorID: userID},
	}
}

func bucketIDs(experiences []models.Experience) []uint {
	ids := make([]uint, 0, len(experiences))
	for _, experience := range experiences {
		ids = append(ids, experience.ID)
	}
	return ids
}

func TestBuildDashboardRequester(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	actor := Actor{ID: 1, Role: models.UserRoleRequester}

	buckets := BuildDashboard(dashboardExperiences(now), actor, now, testWindows)

	require.Equal(t, []uint{1}, bucketIDs(buckets.ByStatus[models.ExperienceStatusDraft]))
	require.Equal(t, []uint{3}, bucketIDs(buckets.ByStatus[models.ExperienceStatusPending]))
	require.Equal(t, []uint{4}, bucketIDs(buckets.ByStatus[models.ExperienceStatusNeedsEvaluation]))
	require.Equal(t, []uint{5}, bucketIDs(buckets.ByStatus[models.ExperienceStatusApproved]))
	require.Empty(t, buckets.ByStatus[models.ExperienceStatusCancelled])
	require.Equal(t, []uint{5}, bucketIDs(buckets.Upcoming))
	require.Equal(t, []uint{4}, bucketIDs(buckets.NeedsEvaluation))
}

func TestBuildDashboardHallstaff(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	actor := Actor{ID: 2, Role: models.UserRoleHallstaff}

	buckets := BuildDashboard(dashboardExperiences(now), actor, now, testWindows)

	require.Equal(t, []uint{3}, bucketIDs(buckets.ByStatus[models.ExperienceStatusPending]))
	require.Equal(t, []uint{5, 6}, bucketIDs(buckets.Upcoming))
	require.Empty(t, buckets.NeedsEvaluation)
}

func TestStatusListingNeedsEvaluation(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	actor := Actor{ID: 1, Role: models.UserRoleRequester}

	listing := StatusListing(dashboardExperiences(now), actor, now, models.ExperienceStatusNeedsEvaluation)
	require.Equal(t, []uint{4}, bucketIDs(listing))
}

func TestDashboardServiceCapsBuckets(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	related := make([]models.Experience, 0, 3)
	for i := 1; i <= 3; i++ {
		related = append(related, models.Experience{ID: uint(i), Status: models.ExperienceStatusDraft, AuthorID: 1})
	}
	repo := &stubExperienceRepo{related: related}
	svc := NewDashboardService(repo, nil, time.Minute, testWindows, testLogger()).(*dashboardService)
	svc.now = func() time.Time { return now }

	response, err := svc.GetDashboard(context.Background(), Actor{ID: 1, Role: models.UserRoleRequester})
	require.NoError(t, err)
	require.Len(t, response.Buckets, len(DashboardStatusOrder))

	for _, bucket := range response.Buckets {
		if bucket.Status != models.ExperienceStatusDraft {
			continue
		}
		require.Len(t, bucket.Items, 2)
		require.Equal(t, 3, bucket.Total)
	}
}

func TestDashboardServiceListByStatusRejectsUnknown(t *testing.T) {
	svc := NewDashboardService(&stubExperienceRepo{}, nil, time.Minute, testWindows, testLogger())

	_, err := svc.ListByStatus(context.Background(), Actor{ID: 1}, "archived")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDashboardServiceCachesUntilInvalidated(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubExperienceRepo{related: dashboardExperiences(now)}
	svc := NewDashboardService(repo, client, time.Minute, testWindows, testLogger()).(*dashboardService)
	svc.now = func() time.Time { return now }
	actor := Actor{ID: 1, Role: models.UserRoleRequester}

	first, err := svc.GetDashboard(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 1, repo.relatedCalls)

	second, err := svc.GetDashboard(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 1, repo.relatedCalls)
	require.Equal(t, first.UpcomingTotal, second.UpcomingTotal)

	svc.Invalidate(context.Background())

	_, err = svc.GetDashboard(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 2, repo.relatedCalls)
}

func TestDashboardServiceCacheFollowsClock(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	now := time.Date(2024, time.March, 10, 12, 0, 10, 0, time.UTC)
	repo := &stubExperienceRepo{related: dashboardExperiences(now)}
	svc := NewDashboardService(repo, client, time.Minute, testWindows, testLogger()).(*dashboardService)
	svc.now = func() time.Time { return now }
	actor := Actor{ID: 1, Role: models.UserRoleRequester}

	cases := []struct {
		name  string
		at    time.Time
		calls int
	}{
		{"first read", now, 1},
		{"same slot", now.Add(30 * time.Second), 1},
		{"next slot", now.Add(55 * time.Second), 2},
	}
	for _, tc := range cases {
		svc.now = func() time.Time { return tc.at }
		_, err := svc.GetDashboard(context.Background(), actor)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.calls, repo.relatedCalls, tc.name)
	}
}
