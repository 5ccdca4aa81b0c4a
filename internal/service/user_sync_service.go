package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/observability"
	"github.com/noah-isme/exdb-api/internal/repository"
	"github.com/noah-isme/exdb-api/pkg/directory"
)

// Directory is the read side of the campus directory.
type Directory interface {
	GroupMembers(ctx context.Context, group string) ([]string, error)
	LookupUser(ctx context.Context, username string) (directory.Entry, error)
}

// UserSyncResult summarises one directory import.
type UserSyncResult struct {
	Populated   int
	Deactivated int
}

// UserSyncService imports user accounts from the directory.
type UserSyncService interface {
	Sync(ctx context.Context) (UserSyncResult, error)
}

type userSyncService struct {
	directory  Directory
	users      repository.UserRepository
	references repository.ReferenceRepository
	groups     []string
	staffGroup string
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewUserSyncService constructs the importer. Members of staffGroup become hallstaff.
func NewUserSyncService(dir Directory, users repository.UserRepository, references repository.ReferenceRepository, groups []string, staffGroup string, logger zerolog.Logger) UserSyncService {
	return &userSyncService{
		directory:  dir,
		users:      users,
		references: references,
		groups:     groups,
		staffGroup: staffGroup,
		logger:     logger.With().Str("component", "user_sync").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/exdb-api/internal/service/usersync"),
	}
}

// Sync populates every member of the configured groups, refreshes the
// remaining known users and deactivates those the directory no longer has.
func (s *userSyncService) Sync(ctx context.Context) (UserSyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserSyncService.Sync")
	defer span.End()

	staff := map[string]bool{}
	members := map[string]bool{}
	for _, group := range s.groups {
		usernames, err := s.directory.GroupMembers(ctx, group)
		if err != nil {
			failSpan(span, err, "group_failed")
			return UserSyncResult{}, fmt.Errorf("read group %s: %w", group, err)
		}
		for _, username := range usernames {
			members[username] = true
			if strings.EqualFold(group, s.staffGroup) {
				staff[username] = true
			}
		}
	}

	ordered := make([]string, 0, len(members))
	for username := range members {
		ordered = append(ordered, username)
	}
	sort.Strings(ordered)

	affiliations := map[string]*uint{}
	result := UserSyncResult{}
	missing := make([]string, 0)

	for _, username := range ordered {
		found, err := s.populate(ctx, username, staff[username], affiliations)
		if err != nil {
			failSpan(span, err, "populate_failed")
			return result, err
		}
		if found {
			result.Populated++
		} else {
			missing = append(missing, username)
		}
	}

	existing, err := s.users.ListUsernames(ctx)
	if err != nil {
		failSpan(span, err, "list_failed")
		return result, err
	}
	for _, username := range existing {
		if members[username] {
			continue
		}
		found, err := s.populate(ctx, username, false, affiliations)
		if err != nil {
			failSpan(span, err, "populate_failed")
			return result, err
		}
		if found {
			result.Populated++
		} else {
			missing = append(missing, username)
		}
	}

	deactivated, err := s.users.Deactivate(ctx, missing)
	if err != nil {
		failSpan(span, err, "deactivate_failed")
		return result, err
	}
	result.Deactivated = int(deactivated)

	observability.DirectorySyncUsers().WithLabelValues("populated").Set(float64(result.Populated))
	observability.DirectorySyncUsers().WithLabelValues("deactivated").Set(float64(result.Deactivated))
	span.SetAttributes(
		attribute.Int("users.populated", result.Populated),
		attribute.Int("users.deactivated", result.Deactivated),
	)

	s.logger.Info().
		Int("populated", result.Populated).
		Int("deactivated", result.Deactivated).
		Msg("directory sync finished")

	return result, nil
}

func (s *userSyncService) populate(ctx context.Context, username string, hallstaff bool, affiliations map[string]*uint) (bool, error) {
	entry, err := s.directory.LookupUser(ctx, username)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			s.logger.Debug().Str("username", username).Msg("user missing from directory")
			return false, nil
		}
		return false, fmt.Errorf("lookup %s: %w", username, err)
	}

	user := models.User{
		Username:  username,
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
		Email:     entry.Email,
		Role:      models.UserRoleRequester,
		IsActive:  true,
	}
	if hallstaff {
		user.Role = models.UserRoleHallstaff
	}

	affiliationID, err := s.affiliation(ctx, entry.Department, affiliations)
	if err != nil {
		return false, err
	}
	user.AffiliationID = affiliationID

	if err := s.users.Upsert(ctx, &user); err != nil {
		return false, fmt.Errorf("store %s: %w", username, err)
	}
	s.logger.Debug().
		Str("username", username).
		Str("email", maskEmailAddress(user.Email)).
		Str("role", user.Role).
		Msg("user populated")
	return true, nil
}

func (s *userSyncService) affiliation(ctx context.Context, department string, cache map[string]*uint) (*uint, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, nil
	}
	if id, ok := cache[department]; ok {
		return id, nil
	}

	affiliation, err := s.references.GetAffiliationByName(ctx, department)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cache[department] = nil
			return nil, nil
		}
		return nil, err
	}
	id := affiliation.ID
	cache[department] = &id
	return &id, nil
}
