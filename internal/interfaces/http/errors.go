package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insumos-api/internal/application/dto"
	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// RetryAfterSeconds valor del header Retry-After en respuestas de conflicto.
const RetryAfterSeconds = "1"

// errorStatus traduce un error de dominio a status HTTP y cuerpo.
func errorStatus(err error) (int, dto.ErrorResponse) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		stock      *domain.InsufficientStockError
		denied     *domain.PermissionDeniedError
		expired    *domain.AnnulmentWindowExpiredError
	)
	switch {
	case errors.As(err, &validation):
		body := dto.ErrorResponse{Code: "VALIDATION", Message: validation.Error()}
		if validation.Field != "" {
			body.Details = map[string]any{"field": validation.Field}
		}
		return fiber.StatusBadRequest, body
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: notFound.Error(),
			Details: map[string]any{"entity": notFound.Entity, "id": notFound.ID}}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &stock):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: stock.Error(),
			Details: map[string]any{"available": stock.Available.String(), "requested": stock.Requested.String()}}
	case errors.As(err, &denied):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: denied.Error(),
			Details: map[string]any{"permission": denied.Permission}}
	case errors.Is(err, domain.ErrPermissionDenied):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrAlreadyAnnulled):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "ALREADY_ANNULLED", Message: err.Error()}
	case errors.As(err, &expired):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "ANNULMENT_WINDOW_EXPIRED", Message: expired.Error(),
			Details: map[string]any{"elapsed_hours": expired.ElapsedHours.StringFixed(2), "limit_hours": expired.LimitHours}}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente"}
	default:
		// Storage y errores no clasificados: el detalle queda en el log, no en la respuesta.
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

// writeError responde con el error mapeado; los 5xx se registran con zerolog.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	}
	if errors.Is(err, domain.ErrConflict) {
		c.Set(fiber.HeaderRetryAfter, RetryAfterSeconds)
	}
	return c.Status(status).JSON(body)
}
