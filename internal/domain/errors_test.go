package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/insumos-api/internal/domain"
)

func TestTypedErrors_MatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{domain.Invalid("quantity", "debe ser mayor que cero"), domain.ErrValidation},
		{domain.NotFound("producto", "p1"), domain.ErrNotFound},
		{&domain.InsufficientStockError{Available: decimal.NewFromInt(2), Requested: decimal.NewFromInt(3)}, domain.ErrInsufficientStock},
		{&domain.PermissionDeniedError{Permission: "movements.annul"}, domain.ErrPermissionDenied},
		{&domain.AnnulmentWindowExpiredError{ElapsedHours: decimal.NewFromInt(25), LimitHours: 24}, domain.ErrAnnulmentWindowExpired},
		{&domain.ConflictError{Resource: "stock"}, domain.ErrConflict},
		{&domain.StorageError{Op: "insert", Err: errors.New("boom")}, domain.ErrStorage},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("capa superior: %w", tc.err)
		assert.ErrorIs(t, wrapped, tc.sentinel, tc.err.Error())
	}
}

func TestAnnulmentWindowExpiredError_MensajeConHoras(t *testing.T) {
	err := &domain.AnnulmentWindowExpiredError{ElapsedHours: decimal.RequireFromString("25.5"), LimitHours: 24}
	assert.Contains(t, err.Error(), "25.50 horas")
	assert.Contains(t, err.Error(), "límite 24")

	var target *domain.AnnulmentWindowExpiredError
	assert.True(t, errors.As(fmt.Errorf("x: %w", err), &target))
	assert.True(t, target.ElapsedHours.Equal(decimal.RequireFromString("25.5")))
}

func TestStorage_NoEnvuelveErroresDeDominio(t *testing.T) {
	conflict := &domain.ConflictError{Resource: "stock"}
	assert.Same(t, conflict, domain.Storage("op", conflict))
	assert.Nil(t, domain.Storage("op", nil))

	err := domain.Storage("insert movement", errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "insert movement")
}
