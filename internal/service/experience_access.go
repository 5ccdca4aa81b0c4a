package service

import "github.com/noah-isme/exdb-api/internal/models"

// canView reports whether the actor may read the experience.
func canView(actor Actor, experience models.Experience) bool {
	if experience.IsAuthor(actor.ID) || experience.IsNextApprover(actor.ID) || experience.ApprovedBy(actor.ID) {
		return true
	}
	if experience.Status == models.ExperienceStatusDraft {
		return false
	}
	return experience.IsPlanner(actor.ID) || actor.Hallstaff()
}

// canEdit reports whether the actor may change the experience fields. Authors
// always may, planners outside drafts, and hallstaff on any non-draft.
func canEdit(actor Actor, experience models.Experience) bool {
	switch experience.Status {
	case models.ExperienceStatusCompleted, models.ExperienceStatusCancelled:
		return false
	}
	if experience.IsAuthor(actor.ID) {
		return true
	}
	if experience.Status == models.ExperienceStatusDraft {
		return false
	}
	return experience.IsPlanner(actor.ID) || actor.Hallstaff()
}

// isOwner reports whether the actor authored or plans the experience.
func isOwner(actor Actor, experience models.Experience) bool {
	return experience.IsAuthor(actor.ID) || experience.IsPlanner(actor.ID)
}

// canDecide reports whether the actor may approve, deny or delete a pending experience.
func canDecide(actor Actor, experience models.Experience) bool {
	return experience.Status == models.ExperienceStatusPending &&
		actor.Hallstaff() &&
		experience.IsNextApprover(actor.ID)
}

// canConclude reports whether the actor may evaluate an approved experience.
func canConclude(actor Actor, experience models.Experience) bool {
	if experience.Status != models.ExperienceStatusApproved {
		return false
	}
	return isOwner(actor, experience) || (actor.Hallstaff() && experience.ApprovedBy(actor.ID))
}

// canCancel reports whether the actor may cancel the experience from the edit page.
func canCancel(actor Actor, experience models.Experience) bool {
	return experience.Status == models.ExperienceStatusDraft && experience.IsAuthor(actor.ID)
}
