package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/handler"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/service"
)

type mockExperienceService struct {
	lastActor   service.Actor
	lastID      uint
	lastVersion uint
	lastPayload dto.ExperienceRequest
	response    dto.ExperienceResponse
	history     []dto.ActivityResponse
	err         error
}

func (m *mockExperienceService) Create(_ context.Context, actor service.Actor, payload dto.ExperienceRequest) (dto.ExperienceResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockExperienceService) Update(_ context.Context, actor service.Actor, id uint, payload dto.ExperienceRequest) (dto.ExperienceResponse, error) {
	m.lastActor = actor
	m.lastID = id
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockExperienceService) Get(_ context.Context, actor service.Actor, id uint) (dto.ExperienceResponse, error) {
	m.lastActor = actor
	m.lastID = id
	return m.response, m.err
}

func (m *mockExperienceService) Cancel(_ context.Context, actor service.Actor, id uint, version uint) (dto.ExperienceResponse, error) {
	m.lastActor = actor
	m.lastID = id
	m.lastVersion = version
	return m.response, m.err
}

func (m *mockExperienceService) Conclude(_ context.Context, actor service.Actor, id uint, _ dto.ConclusionRequest) (dto.ExperienceResponse, error) {
	m.lastActor = actor
	m.lastID = id
	return m.response, m.err
}

func (m *mockExperienceService) History(_ context.Context, actor service.Actor, id uint) ([]dto.ActivityResponse, error) {
	m.lastActor = actor
	m.lastID = id
	return m.history, m.err
}

type mockApprovalService struct {
	lastPayload dto.ApprovalRequest
	response    dto.ExperienceResponse
	err         error
}

func (m *mockApprovalService) Decide(_ context.Context, _ service.Actor, _ uint, payload dto.ApprovalRequest) (dto.ExperienceResponse, error) {
	m.lastPayload = payload
	return m.response, m.err
}

func newExperienceApp(experiences *mockExperienceService, approvals *mockApprovalService) *fiber.App {
	app := fiber.New()
	app.Use(withUser(7, models.UserRoleHallstaff))
	handler.NewExperienceHandler(experiences, approvals, zerolog.New(io.Discard)).Register(app.Group("/api/v1/experiences"))
	return app
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestExperienceHandler_CreateReturnsCreated(t *testing.T) {
	experiences := &mockExperienceService{response: dto.ExperienceResponse{
		ExperienceSummary: dto.ExperienceSummary{ID: 11, Name: "Movie Night", Status: models.ExperienceStatusPending},
	}}
	app := newExperienceApp(experiences, &mockApprovalService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/experiences", dto.ExperienceRequest{Action: dto.ExperienceActionSubmit, Name: "Movie Night"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    dto.ExperienceResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, uint(11), body.Data.ID)
	require.Equal(t, service.Actor{ID: 7, Role: models.UserRoleHallstaff}, experiences.lastActor)
	require.Equal(t, "Movie Night", experiences.lastPayload.Name)
}

func TestExperienceHandler_ValidationErrorsAreListed(t *testing.T) {
	experiences := &mockExperienceService{err: &service.ValidationError{Messages: []string{service.MsgDescriptionRequired, service.MsgEndRequired}}}
	app := newExperienceApp(experiences, &mockApprovalService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/experiences", dto.ExperienceRequest{Action: dto.ExperienceActionSubmit}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, []string{service.MsgDescriptionRequired, service.MsgEndRequired}, body.Errors)
}

func TestExperienceHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrExperienceNotFound, fiber.StatusNotFound},
		{"conflict", service.ErrTransitionConflict, fiber.StatusConflict},
		{"unexpected", io.ErrUnexpectedEOF, fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newExperienceApp(&mockExperienceService{err: tc.err}, &mockApprovalService{})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/experiences/3", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestExperienceHandler_InvalidID(t *testing.T) {
	app := newExperienceApp(&mockExperienceService{}, &mockApprovalService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/experiences/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExperienceHandler_CancelPassesVersion(t *testing.T) {
	experiences := &mockExperienceService{}
	app := newExperienceApp(experiences, &mockApprovalService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/experiences/5?version=3", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(5), experiences.lastID)
	require.Equal(t, uint(3), experiences.lastVersion)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/experiences/5?version=x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExperienceHandler_Decide(t *testing.T) {
	approvals := &mockApprovalService{response: dto.ExperienceResponse{
		ExperienceSummary: dto.ExperienceSummary{ID: 4, Status: models.ExperienceStatusDenied},
	}}
	app := newExperienceApp(&mockExperienceService{}, approvals)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/experiences/4/approval", dto.ApprovalRequest{
		Action:  dto.ApprovalActionDeny,
		Message: "Needs a budget",
		Version: 2,
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.ApprovalActionDeny, approvals.lastPayload.Action)
	require.Equal(t, uint(2), approvals.lastPayload.Version)
}

func TestExperienceHandler_History(t *testing.T) {
	experiences := &mockExperienceService{history: []dto.ActivityResponse{{ID: 1, Action: service.ActionSubmitted}}}
	app := newExperienceApp(experiences, &mockApprovalService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/experiences/9/history", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.ActivityResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, uint(9), experiences.lastID)
}
