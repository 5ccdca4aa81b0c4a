package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/middleware"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func parseOptionalUintQuery(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	id := uint(parsed)
	return &id, nil
}

// parseOptionalTimeQuery accepts RFC 3339 timestamps or plain dates.
func parseOptionalTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid %s", key)
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:        userIDFromContext(c),
		Role:      userRoleFromContext(c),
		Superuser: middleware.IsSuperuser(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func validationMessages(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed on %s", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
	}
	return messages
}

// respondError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, operation string) error {
	var ruleErr *service.ValidationError
	switch {
	case errors.As(err, &ruleErr):
		return utils.SendValidationError(c, ruleErr.Messages)
	case validationMessages(err) != nil:
		return utils.SendValidationError(c, validationMessages(err))
	case errors.Is(err, service.ErrExperienceNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "experience not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrSemesterNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "semester not found")
	case errors.Is(err, service.ErrTransitionConflict):
		return utils.SendError(c, fiber.StatusConflict, "experience was changed by someone else, reload and try again")
	case errors.Is(err, service.ErrInvalidStatus):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid status")
	case errors.Is(err, service.ErrUnsupportedExportFormat):
		return utils.SendError(c, fiber.StatusBadRequest, "unsupported export format")
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid username or password")
	}

	requestLogger(logger, c).Error().Err(err).Str("operation", operation).Msg("request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
