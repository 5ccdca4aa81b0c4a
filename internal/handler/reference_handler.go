package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

// ReferenceHandler exposes lookup tables and their admin maintenance.
type ReferenceHandler struct {
	service   service.ReferenceService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(service service.ReferenceService, validate *validator.Validate, logger zerolog.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "reference_handler").Logger(),
	}
}

// Register wires the read-only lookup routes.
func (h *ReferenceHandler) Register(router fiber.Router) {
	router.Get("/types", h.types)
	router.Get("/subtypes", h.subtypes)
	router.Get("/sections", h.sections)
	router.Get("/affiliations", h.affiliations)
	router.Get("/keywords", h.keywords)
	router.Get("/semesters", h.semesters)
	router.Get("/approvers", h.approvers)
}

// RegisterAdmin wires the create routes. The router must be superuser-only.
func (h *ReferenceHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/types", h.createType)
	router.Post("/subtypes", h.createSubtype)
	router.Post("/sections", h.createSection)
	router.Post("/affiliations", h.createAffiliation)
	router.Post("/keywords", h.createKeyword)
	router.Post("/semesters", h.createSemester)
	router.Post("/requirements", h.createRequirement)
}

func (h *ReferenceHandler) types(c *fiber.Ctx) error {
	items, err := h.service.Types(c.UserContext())
	return h.list(c, items, err, "types")
}

func (h *ReferenceHandler) subtypes(c *fiber.Ctx) error {
	items, err := h.service.Subtypes(c.UserContext())
	return h.list(c, items, err, "subtypes")
}

func (h *ReferenceHandler) sections(c *fiber.Ctx) error {
	items, err := h.service.Sections(c.UserContext())
	return h.list(c, items, err, "sections")
}

func (h *ReferenceHandler) affiliations(c *fiber.Ctx) error {
	items, err := h.service.Affiliations(c.UserContext())
	return h.list(c, items, err, "affiliations")
}

func (h *ReferenceHandler) keywords(c *fiber.Ctx) error {
	items, err := h.service.Keywords(c.UserContext())
	return h.list(c, items, err, "keywords")
}

func (h *ReferenceHandler) semesters(c *fiber.Ctx) error {
	items, err := h.service.Semesters(c.UserContext())
	return h.list(c, items, err, "semesters")
}

func (h *ReferenceHandler) approvers(c *fiber.Ctx) error {
	items, err := h.service.Approvers(c.UserContext())
	return h.list(c, items, err, "approvers")
}

func (h *ReferenceHandler) list(c *fiber.Ctx, items interface{}, err error, kind string) error {
	if err != nil {
		return respondError(c, h.logger, err, "list_"+kind)
	}
	return utils.SendSuccess(c, kind+" retrieved", items)
}

func (h *ReferenceHandler) createType(c *fiber.Ctx) error {
	var payload dto.TypeCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_type")
	}
	created, err := h.service.CreateType(c.UserContext(), payload)
	return h.created(c, created, err, "type")
}

func (h *ReferenceHandler) createSubtype(c *fiber.Ctx) error {
	var payload dto.SubtypeCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_subtype")
	}
	created, err := h.service.CreateSubtype(c.UserContext(), payload)
	return h.created(c, created, err, "subtype")
}

func (h *ReferenceHandler) createSection(c *fiber.Ctx) error {
	var payload dto.SectionCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_section")
	}
	created, err := h.service.CreateSection(c.UserContext(), payload)
	return h.created(c, created, err, "section")
}

func (h *ReferenceHandler) createAffiliation(c *fiber.Ctx) error {
	var payload dto.NamedCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_affiliation")
	}
	created, err := h.service.CreateAffiliation(c.UserContext(), payload)
	return h.created(c, created, err, "affiliation")
}

func (h *ReferenceHandler) createKeyword(c *fiber.Ctx) error {
	var payload dto.NamedCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_keyword")
	}
	created, err := h.service.CreateKeyword(c.UserContext(), payload)
	return h.created(c, created, err, "keyword")
}

func (h *ReferenceHandler) createSemester(c *fiber.Ctx) error {
	var payload dto.SemesterCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_semester")
	}
	created, err := h.service.CreateSemester(c.UserContext(), payload)
	return h.created(c, created, err, "semester")
}

func (h *ReferenceHandler) createRequirement(c *fiber.Ctx) error {
	var payload dto.RequirementCreateRequest
	if err := h.bind(c, &payload); err != nil {
		return respondError(c, h.logger, err, "create_requirement")
	}
	created, err := h.service.CreateRequirement(c.UserContext(), payload)
	return h.created(c, created, err, "requirement")
}

func (h *ReferenceHandler) bind(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return &service.ValidationError{Messages: []string{"invalid request body"}}
	}
	return h.validator.Struct(payload)
}

func (h *ReferenceHandler) created(c *fiber.Ctx, value interface{}, err error, kind string) error {
	if err != nil {
		return respondError(c, h.logger, err, "create_"+kind)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, kind+" created", value)
}
