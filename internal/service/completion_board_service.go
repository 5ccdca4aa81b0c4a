package service

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// CompletionBoardService reports per-user progress against semester requirements.
type CompletionBoardService interface {
	Board(ctx context.Context, req dto.CompletionBoardRequest) (dto.CompletionBoardResponse, error)
}

type completionBoardService struct {
	requirements repository.RequirementRepository
	experiences  repository.ExperienceRepository
	users        repository.UserRepository
	logger       zerolog.Logger
}

// NewCompletionBoardService constructs the completion board.
func NewCompletionBoardService(requirements repository.RequirementRepository, experiences repository.ExperienceRepository, users repository.UserRepository, logger zerolog.Logger) CompletionBoardService {
	return &completionBoardService{
		requirements: requirements,
		experiences:  experiences,
		users:        users,
		logger:       logger.With().Str("component", "completion_board_service").Logger(),
	}
}

func (s *completionBoardService) Board(ctx context.Context, req dto.CompletionBoardRequest) (dto.CompletionBoardResponse, error) {
	semester, err := s.requirements.GetSemester(ctx, req.SemesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompletionBoardResponse{}, ErrSemesterNotFound
		}
		return dto.CompletionBoardResponse{}, err
	}

	requirements, err := s.requirements.ListBySemester(ctx, semester.ID)
	if err != nil {
		return dto.CompletionBoardResponse{}, err
	}
	if req.AffiliationID != nil {
		filtered := requirements[:0]
		for _, requirement := range requirements {
			if requirement.AffiliationID == *req.AffiliationID {
				filtered = append(filtered, requirement)
			}
		}
		requirements = filtered
	}

	users, err := s.users.ListActive(ctx)
	if err != nil {
		return dto.CompletionBoardResponse{}, err
	}

	completed, err := s.experiences.ListCompletedBetween(ctx, semester.StartDate, semester.EndDate)
	if err != nil {
		return dto.CompletionBoardResponse{}, err
	}

	response := BuildCompletionBoard(semester, requirements, users, completed, req.SectionID)
	s.logger.Debug().
		Uint("semester_id", semester.ID).
		Int("requirements", len(requirements)).
		Int("rows", len(response.Rows)).
		Msg("completion board built")
	return response, nil
}

// BuildCompletionBoard counts, per user, the completed experiences they
// authored or planned for each subtype required of their affiliation.
func BuildCompletionBoard(semester models.Semester, requirements []models.Requirement, users []models.User, completed []models.Experience, sectionID *uint) dto.CompletionBoardResponse {
	response := dto.CompletionBoardResponse{
		SemesterID: semester.ID,
		Semester:   semester.Name,
		Columns:    make([]dto.RequirementColumn, 0, len(requirements)),
		Rows:       make([]dto.CompletionRow, 0),
	}

	sort.SliceStable(requirements, func(i, j int) bool {
		if requirements[i].AffiliationID != requirements[j].AffiliationID {
			return requirements[i].AffiliationID < requirements[j].AffiliationID
		}
		return requirements[i].SubtypeID < requirements[j].SubtypeID
	})

	byAffiliation := map[uint][]models.Requirement{}
	for _, requirement := range requirements {
		byAffiliation[requirement.AffiliationID] = append(byAffiliation[requirement.AffiliationID], requirement)
		response.Columns = append(response.Columns, dto.RequirementColumn{
			SubtypeID:     requirement.SubtypeID,
			Subtype:       requirement.Subtype.Name,
			AffiliationID: requirement.AffiliationID,
			TotalNeeded:   requirement.TotalNeeded,
		})
	}

	// counts[user][subtype]
	counts := map[uint]map[uint]int{}
	credit := func(userID uint, subtypes []models.Subtype) {
		if counts[userID] == nil {
			counts[userID] = map[uint]int{}
		}
		for _, subtype := range subtypes {
			counts[userID][subtype.ID]++
		}
	}
	for _, experience := range completed {
		if experience.StartDatetime == nil || !semester.Contains(*experience.StartDatetime) {
			continue
		}
		credited := map[uint]bool{experience.AuthorID: true}
		credit(experience.AuthorID, experience.Subtypes)
		for _, planner := range experience.Planners {
			if credited[planner.ID] {
				continue
			}
			credited[planner.ID] = true
			credit(planner.ID, experience.Subtypes)
		}
	}

	for _, user := range users {
		if user.AffiliationID == nil {
			continue
		}
		if sectionID != nil && (user.SectionID == nil || *user.SectionID != *sectionID) {
			continue
		}
		userRequirements := byAffiliation[*user.AffiliationID]
		if len(userRequirements) == 0 {
			continue
		}

		row := dto.CompletionRow{
			User:     dto.NewUserSummary(user),
			Cells:    make([]dto.CompletionCell, 0, len(userRequirements)),
			Complete: true,
		}
		for _, requirement := range userRequirements {
			done := counts[user.ID][requirement.SubtypeID]
			met := done >= requirement.TotalNeeded
			row.Cells = append(row.Cells, dto.CompletionCell{
				SubtypeID: requirement.SubtypeID,
				Completed: done,
				Needed:    requirement.TotalNeeded,
				Met:       met,
			})
			if !met {
				row.Complete = false
			}
		}
		response.Rows = append(response.Rows, row)
	}

	return response
}
