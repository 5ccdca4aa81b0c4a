package service

import (
	"sort"
	"time"

	"github.com/noah-isme/exdb-api/internal/models"
)

// DashboardStatusOrder is the display order of the per-status buckets.
var DashboardStatusOrder = []string{
	models.ExperienceStatusNeedsEvaluation,
	models.ExperienceStatusPending,
	models.ExperienceStatusApproved,
	models.ExperienceStatusDenied,
	models.ExperienceStatusDraft,
	models.ExperienceStatusCompleted,
}

// DashboardWindows configures the role dependent lookahead and the display cap.
type DashboardWindows struct {
	HallstaffAhead time.Duration
	RequesterAhead time.Duration
	Limit          int
}

// Lookahead returns the upcoming window for the actor's role.
func (w DashboardWindows) Lookahead(actor Actor) time.Duration {
	if actor.Hallstaff() {
		return w.HallstaffAhead
	}
	return w.RequesterAhead
}

// DashboardBuckets holds the uncapped buckets computed for one user.
type DashboardBuckets struct {
	ByStatus        map[string][]models.Experience
	Upcoming        []models.Experience
	NeedsEvaluation []models.Experience
}

// BuildDashboard sorts the experiences related to the actor into the
// per-status, upcoming and needs-evaluation buckets.
func BuildDashboard(experiences []models.Experience, actor Actor, now time.Time, windows DashboardWindows) DashboardBuckets {
	buckets := DashboardBuckets{
		ByStatus:        make(map[string][]models.Experience, len(DashboardStatusOrder)),
		Upcoming:        make([]models.Experience, 0),
		NeedsEvaluation: make([]models.Experience, 0),
	}
	horizon := now.Add(windows.Lookahead(actor))

	for _, experience := range sortedByStart(experiences) {
		if belongsToUser(actor, experience) {
			status := experience.DisplayStatus(now)
			buckets.ByStatus[status] = append(buckets.ByStatus[status], experience)
		}

		if isUpcoming(experience, now, horizon) && canView(actor, experience) {
			buckets.Upcoming = append(buckets.Upcoming, experience)
		}

		if experience.NeedsEvaluation(now) && canConclude(actor, experience) {
			buckets.NeedsEvaluation = append(buckets.NeedsEvaluation, experience)
		}
	}

	return buckets
}

// StatusListing returns every experience the dashboard would show under status.
func StatusListing(experiences []models.Experience, actor Actor, now time.Time, status string) []models.Experience {
	result := make([]models.Experience, 0)
	for _, experience := range sortedByStart(experiences) {
		if status == models.ExperienceStatusNeedsEvaluation {
			if experience.NeedsEvaluation(now) && canConclude(actor, experience) {
				result = append(result, experience)
			}
			continue
		}
		if belongsToUser(actor, experience) && experience.DisplayStatus(now) == status {
			result = append(result, experience)
		}
	}
	return result
}

// belongsToUser reports whether the experience appears in the actor's own
// status buckets. Cancelled experiences are never listed and planners do not
// see drafts.
func belongsToUser(actor Actor, experience models.Experience) bool {
	if experience.Status == models.ExperienceStatusCancelled {
		return false
	}
	if experience.IsAuthor(actor.ID) {
		return true
	}
	if experience.Status == models.ExperienceStatusDraft {
		return false
	}
	return experience.IsPlanner(actor.ID) || experience.IsNextApprover(actor.ID)
}

func isUpcoming(experience models.Experience, now, horizon time.Time) bool {
	if experience.Status != models.ExperienceStatusApproved || experience.StartDatetime == nil {
		return false
	}
	start := *experience.StartDatetime
	return start.After(now) && !start.After(horizon)
}

func sortedByStart(experiences []models.Experience) []models.Experience {
	sorted := append([]models.Experience(nil), experiences...)
	sort.SliceStable(sorted, func(i, j int) bool {
		left, right := sorted[i].StartDatetime, sorted[j].StartDatetime
		switch {
		case left == nil && right == nil:
			return sorted[i].ID < sorted[j].ID
		case left == nil:
			return false
		case right == nil:
			return true
		case left.Equal(*right):
			return sorted[i].ID < sorted[j].ID
		default:
			return left.Before(*right)
		}
	})
	return sorted
}

func capExperiences(experiences []models.Experience, limit int) []models.Experience {
	if limit <= 0 || len(experiences) <= limit {
		return experiences
	}
	return experiences[:limit]
}
