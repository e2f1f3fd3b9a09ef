package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/insumos-api/internal/domain"
)

func TestRetryPolicy_SoloConflictos(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return &domain.ConflictError{Resource: "stock"}
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 4, calls, "1 intento + 3 reintentos")

	calls = 0
	err = p.Do(context.Background(), func() error {
		calls++
		return domain.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, calls, "los errores de negocio no se reintentan")

	calls = 0
	err = p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &domain.ConflictError{Resource: "stock"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ContextoCancelado(t *testing.T) {
	p := RetryPolicy{Attempts: 10, BaseDelay: time.Hour, MaxDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return &domain.ConflictError{Resource: "stock", Err: errors.New("lock timeout")}
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_DelayAcotado(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 40 * time.Millisecond}
	for attempt := 0; attempt < 10; attempt++ {
		d := p.delay(attempt)
		assert.LessOrEqual(t, d, 40*time.Millisecond)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	}
	assert.Zero(t, RetryPolicy{}.delay(3))
}
