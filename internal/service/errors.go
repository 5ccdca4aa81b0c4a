package service

import (
	"errors"
	"strings"
)

var (
	// ErrExperienceNotFound covers both missing experiences and experiences
	// the user may not act on.
	ErrExperienceNotFound = errors.New("experience not found")
	// ErrTransitionConflict indicates the experience changed while it was being updated.
	ErrTransitionConflict = errors.New("experience was modified by another request")
	// ErrUserNotFound indicates a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSemesterNotFound indicates the requested semester does not exist.
	ErrSemesterNotFound = errors.New("semester not found")
	// ErrUnsupportedExportFormat indicates an unknown export format.
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
	// ErrInvalidStatus indicates an unknown experience status in a listing request.
	ErrInvalidStatus = errors.New("invalid experience status")
	// ErrInactiveUser indicates the account was deactivated by the directory sync.
	ErrInactiveUser = errors.New("user is inactive")
)

// ValidationError carries every violated business rule of a submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}
