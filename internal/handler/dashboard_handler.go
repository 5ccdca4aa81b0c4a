package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

// DashboardHandler serves the home page buckets and per-status listings.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires the dashboard route.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
}

// RegisterStatus wires the per-status listing onto the experiences group.
func (h *DashboardHandler) RegisterStatus(router fiber.Router) {
	router.Get("/status/:status", h.byStatus)
}

func (h *DashboardHandler) dashboard(c *fiber.Ctx) error {
	response, err := h.service.GetDashboard(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *DashboardHandler) byStatus(c *fiber.Ctx) error {
	status := strings.ToLower(strings.TrimSpace(c.Params("status")))

	response, err := h.service.ListByStatus(c.UserContext(), actorFromContext(c), status)
	if err != nil {
		return respondError(c, h.logger, err, "list_by_status")
	}
	return utils.OK(c, response.Items, "experiences retrieved", fiber.Map{
		"status": response.Status,
		"label":  response.Label,
		"total":  response.Total,
	})
}
