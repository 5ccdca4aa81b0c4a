package service

import (
	"strings"
	"time"

	"github.com/noah-isme/exdb-api/internal/models"
)

// Validation messages surfaced to authors.
const (
	MsgDescriptionRequired   = "A description is required"
	MsgEndRequired           = "An end time is required"
	MsgStartRequired         = "A start time is required"
	MsgTypeRequired          = "The type field is required"
	MsgSubtypeRequired       = "The subtype field is required"
	MsgSupervisorRequired    = "Please select the supervisor to review this experience"
	MsgStartMustBePast       = "This experience must have a start date in the past"
	MsgStartMustBeFuture     = "This experience must have a start date in the future"
	MsgStartBeforeEnd        = "Start time must be before end time"
	MsgAttendanceRequired    = "An attendance is required"
	MsgAttendanceNegative    = "There cannot be a negative attendance"
	MsgAudienceRequired      = "An audience is required"
	MsgAttendanceNotAllowed  = "An attendance is not allowed yet"
	MsgSupervisorNotApprover = "Supervisor must have permissions to approve and deny experiences"
	MsgConclusionRequired    = "A conclusion is required"
	MsgNameRequired          = "A title is required"

	MsgEvaluationAttendance = "There must be an attendance"
	MsgEvaluationConclusion = "Please enter a conclusion"
	MsgDenialComment        = "There must be a comment if the Experience is denied."
)

// Candidate is the set of submitted values a rule inspects.
type Candidate struct {
	Name          string
	Description   string
	TypeID        *uint
	Subtypes      []models.Subtype
	StartDatetime *time.Time
	EndDatetime   *time.Time
	Audience      string
	Attendance    *int
	NextApprover  *models.User
	Conclusion    string
}

// NeedsVerification applies the conservative union over the selected subtypes.
func (c Candidate) NeedsVerification() bool {
	return models.SubtypesNeedVerification(c.Subtypes)
}

// RuleContext carries the inputs a rule needs besides the candidate.
type RuleContext struct {
	Now               time.Time
	ApprovalFlow      bool
	NeedsVerification bool
}

// Rule is a single independent check returning a message when violated.
type Rule interface {
	Check(candidate Candidate, ctx RuleContext) (string, bool)
}

// RuleFunc adapts a predicate and message into a Rule.
type RuleFunc struct {
	Message  string
	Violated func(candidate Candidate, ctx RuleContext) bool
}

// Check implements Rule.
func (r RuleFunc) Check(candidate Candidate, ctx RuleContext) (string, bool) {
	if r.Violated(candidate, ctx) {
		return r.Message, true
	}
	return "", false
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// SubmitRules are applied, in order, when an experience is submitted.
var SubmitRules = []Rule{
	RuleFunc{MsgDescriptionRequired, func(c Candidate, _ RuleContext) bool { return blank(c.Description) }},
	RuleFunc{MsgEndRequired, func(c Candidate, _ RuleContext) bool { return c.EndDatetime == nil }},
	RuleFunc{MsgStartRequired, func(c Candidate, _ RuleContext) bool { return c.StartDatetime == nil }},
	RuleFunc{MsgTypeRequired, func(c Candidate, _ RuleContext) bool { return c.TypeID == nil }},
	RuleFunc{MsgSubtypeRequired, func(c Candidate, _ RuleContext) bool { return len(c.Subtypes) == 0 }},
	RuleFunc{MsgSupervisorRequired, func(c Candidate, ctx RuleContext) bool {
		return ctx.NeedsVerification && !ctx.ApprovalFlow && c.NextApprover == nil
	}},
	RuleFunc{MsgStartMustBePast, func(c Candidate, ctx RuleContext) bool {
		return !ctx.NeedsVerification && c.StartDatetime != nil && c.StartDatetime.After(ctx.Now)
	}},
	RuleFunc{MsgStartMustBeFuture, func(c Candidate, ctx RuleContext) bool {
		return ctx.NeedsVerification && !ctx.ApprovalFlow && c.StartDatetime != nil && !c.StartDatetime.After(ctx.Now)
	}},
	RuleFunc{MsgStartBeforeEnd, func(c Candidate, _ RuleContext) bool {
		return c.StartDatetime != nil && c.EndDatetime != nil && !c.StartDatetime.Before(*c.EndDatetime)
	}},
	RuleFunc{MsgAttendanceRequired, func(c Candidate, ctx RuleContext) bool {
		return !ctx.NeedsVerification && c.Attendance == nil
	}},
	RuleFunc{MsgAttendanceNegative, func(c Candidate, _ RuleContext) bool {
		return c.Attendance != nil && *c.Attendance < 0
	}},
	RuleFunc{MsgAudienceRequired, func(c Candidate, ctx RuleContext) bool {
		return !ctx.NeedsVerification && blank(c.Audience)
	}},
	RuleFunc{MsgAttendanceNotAllowed, func(c Candidate, ctx RuleContext) bool {
		return ctx.NeedsVerification && c.Attendance != nil && *c.Attendance > 0
	}},
	RuleFunc{MsgSupervisorNotApprover, func(c Candidate, ctx RuleContext) bool {
		return ctx.NeedsVerification && c.NextApprover != nil && !c.NextApprover.IsHallstaff()
	}},
	RuleFunc{MsgConclusionRequired, func(c Candidate, ctx RuleContext) bool {
		return !ctx.NeedsVerification && blank(c.Conclusion)
	}},
}

// SaveRules are applied when an experience is saved as a draft.
var SaveRules = []Rule{
	RuleFunc{MsgNameRequired, func(c Candidate, _ RuleContext) bool { return blank(c.Name) }},
	RuleFunc{MsgStartBeforeEnd, func(c Candidate, _ RuleContext) bool {
		return c.StartDatetime != nil && c.EndDatetime != nil && !c.StartDatetime.Before(*c.EndDatetime)
	}},
	RuleFunc{MsgAttendanceNegative, func(c Candidate, _ RuleContext) bool {
		return c.Attendance != nil && *c.Attendance < 0
	}},
}

// ConclusionRules are applied when an approved experience is evaluated.
var ConclusionRules = []Rule{
	RuleFunc{MsgEvaluationAttendance, func(c Candidate, _ RuleContext) bool { return c.Attendance == nil }},
	RuleFunc{MsgAttendanceNegative, func(c Candidate, _ RuleContext) bool {
		return c.Attendance != nil && *c.Attendance < 0
	}},
	RuleFunc{MsgEvaluationConclusion, func(c Candidate, _ RuleContext) bool { return blank(c.Conclusion) }},
}

// ApplyRules evaluates every rule and collects the messages of those violated.
func ApplyRules(rules []Rule, candidate Candidate, ctx RuleContext) []string {
	messages := make([]string, 0)
	for _, rule := range rules {
		if message, violated := rule.Check(candidate, ctx); violated {
			messages = append(messages, message)
		}
	}
	return messages
}

// ValidateSubmission checks a submission and, on success, clears a conclusion
// supplied for an experience that still needs verification.
func ValidateSubmission(candidate *Candidate, now time.Time, approvalFlow bool) error {
	ctx := RuleContext{
		Now:               now,
		ApprovalFlow:      approvalFlow,
		NeedsVerification: candidate.NeedsVerification(),
	}

	if messages := ApplyRules(SubmitRules, *candidate, ctx); len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}

	if ctx.NeedsVerification && candidate.Conclusion != "" {
		candidate.Conclusion = ""
	}

	return nil
}

// ValidateDraft checks the minimal constraints for saving a draft.
func ValidateDraft(candidate Candidate, now time.Time) error {
	if messages := ApplyRules(SaveRules, candidate, RuleContext{Now: now}); len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

// ValidateConclusion checks an evaluation of an approved experience.
func ValidateConclusion(candidate Candidate) error {
	if messages := ApplyRules(ConclusionRules, candidate, RuleContext{}); len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}
