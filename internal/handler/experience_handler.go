package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

// ExperienceHandler exposes the experience workflow endpoints.
type ExperienceHandler struct {
	experiences service.ExperienceService
	approvals   service.ApprovalService
	logger      zerolog.Logger
}

// NewExperienceHandler constructs the handler.
func NewExperienceHandler(experiences service.ExperienceService, approvals service.ApprovalService, logger zerolog.Logger) *ExperienceHandler {
	return &ExperienceHandler{
		experiences: experiences,
		approvals:   approvals,
		logger:      logger.With().Str("component", "experience_handler").Logger(),
	}
}

// Register wires routes for experiences. Static paths must be registered
// before this group's parameterised routes.
func (h *ExperienceHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.cancel)
	router.Post("/:id/approval", h.decide)
	router.Post("/:id/conclusion", h.conclude)
	router.Get("/:id/history", h.history)
}

func (h *ExperienceHandler) create(c *fiber.Ctx) error {
	var payload dto.ExperienceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.experiences.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "create_experience")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "experience created", response)
}

func (h *ExperienceHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	}

	response, err := h.experiences.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "get_experience")
	}

	return utils.SendSuccess(c, "experience retrieved", response)
}

func (h *ExperienceHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	}

	var payload dto.ExperienceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.experiences.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "update_experience")
	}

	return utils.SendSuccess(c, "experience updated", response)
}

func (h *ExperienceHandler) cancel(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	}

	version, err := parseQueryInt(c, "version")
	if err != nil || version < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid version")
	}

	response, err := h.experiences.Cancel(c.UserContext(), actorFromContext(c), id, uint(version))
	if err != nil {
		return respondError(c, h.logger, err, "cancel_experience")
	}

	return utils.SendSuccess(c, "experience cancelled", response)
}

func (h *ExperienceHandler) decide(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	}

	var payload dto.ApprovalRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.approvals.Decide(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "decide_experience")
	}

	return utils.SendSuccess(c, "decision recorded", response)
}

func (h *ExperienceHandler) conclude(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	}

	var payload dto.ConclusionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.experiences.Conclude(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "conclude_experience")
	}

	return utils.SendSuccess(c, "experience concluded", response)
}

func (h *ExperienceHandler) history(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	}

	entries, err := h.experiences.History(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "experience_history")
	}

	return utils.SendSuccess(c, "experience history retrieved", entries)
}
