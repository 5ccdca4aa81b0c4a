package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

func TestBuildCompletionBoardCreditsAuthorsAndPlanners(t *testing.T) {
	semester := models.Semester{
		ID:        1,
		Name:      "Fall 2024",
		StartDate: time.Date(2024, time.August, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC),
	}
	social := models.Subtype{ID: 10, Name: "Social"}
	service := models.Subtype{ID: 11, Name: "Service"}
	requirements := []models.Requirement{
		{SubtypeID: social.ID, Subtype: social, AffiliationID: 1, TotalNeeded: 2},
		{SubtypeID: service.ID, Subtype: service, AffiliationID: 1, TotalNeeded: 1},
	}
	users := []models.User{
		{ID: 1, Username: "ra1", AffiliationID: ptrUint(1), SectionID: ptrUint(5)},
		{ID: 2, Username: "ra2", AffiliationID: ptrUint(1), SectionID: ptrUint(6)},
		{ID: 3, Username: "unaffiliated"},
	}
	inside := time.Date(2024, time.September, 1, 19, 0, 0, 0, time.UTC)
	before := time.Date(2024, time.July, 1, 19, 0, 0, 0, time.UTC)
	completed := []models.Experience{
		{ID: 1, AuthorID: 1, StartDatetime: &inside, Subtypes: []models.Subtype{social}, Planners: []models.User{{ID: 2}, {ID: 1}}},
		{ID: 2, AuthorID: 1, StartDatetime: &inside, Subtypes: []models.Subtype{social, service}},
		{ID: 3, AuthorID: 2, StartDatetime: &before, Subtypes: []models.Subtype{service}},
	}

	board := BuildCompletionBoard(semester, requirements, users, completed, nil)
	require.Equal(t, "Fall 2024", board.Semester)
	require.Len(t, board.Columns, 2)
	require.Len(t, board.Rows, 2)

	first := board.Rows[0]
	require.Equal(t, uint(1), first.User.ID)
	require.True(t, first.Complete)
	require.Equal(t, 2, first.Cells[0].Completed)
	require.Equal(t, 1, first.Cells[1].Completed)

	second := board.Rows[1]
	require.False(t, second.Complete)
	require.Equal(t, 1, second.Cells[0].Completed)
	require.Equal(t, 0, second.Cells[1].Completed)

	filtered := BuildCompletionBoard(semester, requirements, users, completed, ptrUint(6))
	require.Len(t, filtered.Rows, 1)
	require.Equal(t, uint(2), filtered.Rows[0].User.ID)
}

func TestCompletionBoardUnknownSemester(t *testing.T) {
	db := openTestDB(t)
	svc := NewCompletionBoardService(
		repository.NewRequirementRepository(db),
		repository.NewExperienceRepository(db),
		repository.NewUserRepository(db),
		testLogger(),
	)

	_, err := svc.Board(context.Background(), dto.CompletionBoardRequest{SemesterID: 42})
	require.ErrorIs(t, err, ErrSemesterNotFound)
}

func TestCompletionBoardFromDatabase(t *testing.T) {
	f := newWorkflowFixture(t)

	affiliation := models.Affiliation{Name: "North Hall"}
	require.NoError(t, f.db.Create(&affiliation).Error)
	require.NoError(t, f.db.Model(&models.User{}).Where("id IN ?", []uint{f.author.ID, f.planner.ID}).Update("affiliation_id", affiliation.ID).Error)

	semester := models.Semester{
		Name:      "Spring 2024",
		StartDate: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&semester).Error)
	require.NoError(t, f.db.Create(&models.Requirement{
		SubtypeID:     f.unverified.ID,
		AffiliationID: affiliation.ID,
		SemesterID:    semester.ID,
		TotalNeeded:   1,
	}).Error)

	start := f.now.Add(-3 * time.Hour)
	end := f.now.Add(-time.Hour)
	_, err := f.service.Create(context.Background(), actorOf(f.author), dto.ExperienceRequest{
		Action:        dto.ExperienceActionSubmit,
		Name:          "Floor Meeting",
		Description:   "Monthly check-in",
		Audience:      "Residents",
		Attendance:    ptrInt(8),
		Conclusion:    "Done",
		StartDatetime: &start,
		EndDatetime:   &end,
		TypeID:        ptrUint(f.eventType.ID),
		SubtypeIDs:    []uint{f.unverified.ID},
		PlannerIDs:    []uint{f.planner.ID},
	})
	require.NoError(t, err)

	svc := NewCompletionBoardService(
		repository.NewRequirementRepository(f.db),
		f.experiences,
		f.users,
		testLogger(),
	)
	board, err := svc.Board(context.Background(), dto.CompletionBoardRequest{SemesterID: semester.ID})
	require.NoError(t, err)
	require.Len(t, board.Columns, 1)
	require.Len(t, board.Rows, 2)
	for _, row := range board.Rows {
		require.True(t, row.Complete, row.User.Username)
	}
}
