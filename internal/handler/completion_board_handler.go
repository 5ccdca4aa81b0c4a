package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

// CompletionBoardHandler reports requirement progress per user.
type CompletionBoardHandler struct {
	service service.CompletionBoardService
	logger  zerolog.Logger
}

// NewCompletionBoardHandler constructs the handler.
func NewCompletionBoardHandler(service service.CompletionBoardService, logger zerolog.Logger) *CompletionBoardHandler {
	return &CompletionBoardHandler{
		service: service,
		logger:  logger.With().Str("component", "completion_board_handler").Logger(),
	}
}

// Register wires the board route.
func (h *CompletionBoardHandler) Register(router fiber.Router) {
	router.Get("", h.board)
}

func (h *CompletionBoardHandler) board(c *fiber.Ctx) error {
	semesterID, err := parseOptionalUintQuery(c, "semester_id")
	if err != nil || semesterID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "semester_id is required")
	}
	sectionID, err := parseOptionalUintQuery(c, "section_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	affiliationID, err := parseOptionalUintQuery(c, "affiliation_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	board, err := h.service.Board(c.UserContext(), dto.CompletionBoardRequest{
		SemesterID:    *semesterID,
		AffiliationID: affiliationID,
		SectionID:     sectionID,
	})
	if err != nil {
		return respondError(c, h.logger, err, "completion_board")
	}

	return utils.SendSuccess(c, "completion board retrieved", board)
}
