package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

// AuthHandler issues tokens and reports the current user.
type AuthHandler struct {
	service   service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Login authenticates a user and returns a bearer token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.Username = strings.TrimSpace(payload.Username)

	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err, "login")
	}

	response, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "login")
	}

	return utils.SendSuccess(c, "login successful", response)
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	response, err := h.service.Me(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "me")
	}
	return utils.SendSuccess(c, "profile retrieved", response)
}
