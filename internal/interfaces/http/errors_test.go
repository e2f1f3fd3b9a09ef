package http

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

func TestErrorStatus_Taxonomia(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Invalid("quantity", "debe ser mayor que cero"), fiber.StatusBadRequest, "VALIDATION"},
		{domain.NotFound("producto", "p1"), fiber.StatusNotFound, "NOT_FOUND"},
		{&domain.InsufficientStockError{Available: decimal.NewFromInt(1), Requested: decimal.NewFromInt(2)}, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		{&domain.PermissionDeniedError{Permission: "movements.annul"}, fiber.StatusForbidden, "FORBIDDEN"},
		{domain.ErrAlreadyAnnulled, fiber.StatusConflict, "ALREADY_ANNULLED"},
		{&domain.AnnulmentWindowExpiredError{ElapsedHours: decimal.NewFromInt(25), LimitHours: 24}, fiber.StatusUnprocessableEntity, "ANNULMENT_WINDOW_EXPIRED"},
		{&domain.ConflictError{Resource: "stock"}, fiber.StatusConflict, "CONFLICT"},
		{&domain.StorageError{Op: "insert", Err: errors.New("connection reset")}, fiber.StatusInternalServerError, "INTERNAL"},
		{errors.New("desconocido"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, body := errorStatus(fmt.Errorf("caso de uso: %w", tc.err))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestErrorStatus_StorageNoExponeDetalle(t *testing.T) {
	_, body := errorStatus(&domain.StorageError{Op: "insert", Err: errors.New("password authentication failed")})
	assert.NotContains(t, body.Message, "password")
}

func TestWriteError_ConflictoAgregaRetryAfter(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return writeError(c, logger.Nop(), &domain.ConflictError{Resource: "stock"})
	})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, RetryAfterSeconds, resp.Header.Get(fiber.HeaderRetryAfter))
}
