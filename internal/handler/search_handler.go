package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

// SearchHandler exposes experience search and export.
type SearchHandler struct {
	service service.SearchService
	logger  zerolog.Logger
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(service service.SearchService, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger.With().Str("component", "search_handler").Logger(),
	}
}

// Register wires the search routes onto the experiences group.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Get("/search", h.search)
	router.Get("/search/export", h.export)
}

func (h *SearchHandler) search(c *fiber.Ctx) error {
	req, err := searchRequestFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	items, err := h.service.Search(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "search_experiences")
	}

	return utils.OK(c, items, "experiences retrieved", fiber.Map{"total": len(items)})
}

func (h *SearchHandler) export(c *fiber.Ctx) error {
	req, err := searchRequestFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format", service.ExportFormatCSV)))
	file, err := h.service.Export(c.UserContext(), actorFromContext(c), req, format)
	if err != nil {
		return respondError(c, h.logger, err, "export_experiences")
	}

	c.Attachment(file.Filename)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Status(fiber.StatusOK).Send(file.Data)
}

func searchRequestFromQuery(c *fiber.Ctx) (dto.ExperienceSearchRequest, error) {
	req := dto.ExperienceSearchRequest{
		Query:  strings.TrimSpace(c.Query("q")),
		Status: strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}

	var err error
	if req.TypeID, err = parseOptionalUintQuery(c, "type_id"); err != nil {
		return req, err
	}
	if req.SubtypeID, err = parseOptionalUintQuery(c, "subtype_id"); err != nil {
		return req, err
	}
	if req.AuthorID, err = parseOptionalUintQuery(c, "author_id"); err != nil {
		return req, err
	}
	if req.Start, err = parseOptionalTimeQuery(c, "start"); err != nil {
		return req, err
	}
	if req.End, err = parseOptionalTimeQuery(c, "end"); err != nil {
		return req, err
	}
	return req, nil
}
