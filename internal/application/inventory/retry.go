package inventory

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jhoicas/insumos-api/internal/domain"
)

// RetryPolicy reintentos ante contención de bloqueos. Solo se reintenta domain.ErrConflict.
type RetryPolicy struct {
	Attempts  int // reintentos además del primer intento
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy 3 reintentos, 20ms de base, tope de 500ms.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, BaseDelay: 20 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

// IsRetryable indica si err puede tener éxito al reintentar.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}

// Do ejecuta fn hasta que no devuelva un error reintentable o se agoten los intentos.
// Devuelve el último error; un contexto cancelado corta la espera.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt >= p.Attempts {
			return err
		}
		t := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

// delay backoff exponencial con jitter completo.
func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << attempt
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	if d <= 0 {
		d = p.BaseDelay
	}
	return d/2 + rand.N(d/2+1)
}
