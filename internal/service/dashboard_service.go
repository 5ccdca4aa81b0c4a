package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/observability"
	"github.com/noah-isme/exdb-api/internal/repository"
)

const dashboardVersionKey = "dashboard:version"

// DashboardService produces the per-user home page buckets and status listings.
type DashboardService interface {
	DashboardInvalidator
	GetDashboard(ctx context.Context, actor Actor) (dto.DashboardResponse, error)
	ListByStatus(ctx context.Context, actor Actor, status string) (dto.ExperienceListResponse, error)
}

type dashboardService struct {
	experiences repository.ExperienceRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	windows     DashboardWindows
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService builds the dashboard aggregator. A nil cache disables caching.
func NewDashboardService(experiences repository.ExperienceRepository, cache *redis.Client, ttl time.Duration, windows DashboardWindows, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		experiences: experiences,
		cache:       cache,
		cacheTTL:    ttl,
		windows:     windows,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, actor Actor) (dto.DashboardResponse, error) {
	cacheKey := s.cacheKey(ctx, actor)

	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.DashboardCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("user_id", actor.ID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		observability.DashboardCache().WithLabelValues("miss").Inc()
	}

	experiences, err := s.experiences.ListRelated(ctx, actor.ID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := s.buildResponse(experiences, actor)

	if cacheKey != "" {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) ListByStatus(ctx context.Context, actor Actor, status string) (dto.ExperienceListResponse, error) {
	if status != models.ExperienceStatusNeedsEvaluation && !models.IsValidExperienceStatus(status) {
		return dto.ExperienceListResponse{}, ErrInvalidStatus
	}

	experiences, err := s.experiences.ListRelated(ctx, actor.ID)
	if err != nil {
		return dto.ExperienceListResponse{}, err
	}

	now := s.now()
	listing := StatusListing(experiences, actor, now, status)
	return dto.ExperienceListResponse{
		Status: status,
		Label:  models.StatusLabel(status),
		Items:  dto.NewExperienceSummaries(listing, now),
		Total:  len(listing),
	}, nil
}

// Invalidate bumps the cache generation so every cached dashboard is ignored.
func (s *dashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, dashboardVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func (s *dashboardService) cacheKey(ctx context.Context, actor Actor) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, dashboardVersionKey).Int64()
	if err != nil && err != redis.Nil {
		s.logger.Warn().Err(err).Msg("failed to read dashboard cache version")
		return ""
	}
	return fmt.Sprintf("dashboard:v%d:t%d:user:%d:%s", version, s.timeSlot(), actor.ID, actor.Role)
}

// timeSlot changes every TTL so clock-driven buckets are rebuilt even when no
// experience was written.
func (s *dashboardService) timeSlot() int64 {
	if s.cacheTTL <= 0 {
		return 0
	}
	return s.now().UnixNano() / int64(s.cacheTTL)
}

func (s *dashboardService) buildResponse(experiences []models.Experience, actor Actor) dto.DashboardResponse {
	now := s.now()
	buckets := BuildDashboard(experiences, actor, now, s.windows)

	response := dto.DashboardResponse{
		Hallstaff:       actor.Hallstaff(),
		Buckets:         make([]dto.DashboardBucket, 0, len(DashboardStatusOrder)),
		Upcoming:        dto.NewExperienceSummaries(capExperiences(buckets.Upcoming, s.windows.Limit), now),
		UpcomingTotal:   len(buckets.Upcoming),
		NeedsEvaluation: dto.NewExperienceSummaries(capExperiences(buckets.NeedsEvaluation, s.windows.Limit), now),
		EvaluationTotal: len(buckets.NeedsEvaluation),
	}

	for _, status := range DashboardStatusOrder {
		items := buckets.ByStatus[status]
		response.Buckets = append(response.Buckets, dto.DashboardBucket{
			Status: status,
			Label:  models.StatusLabel(status),
			Items:  dto.NewExperienceSummaries(capExperiences(items, s.windows.Limit), now),
			Total:  len(items),
		})
	}

	return response
}
