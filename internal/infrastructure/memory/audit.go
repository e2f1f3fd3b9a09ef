package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// AuditLog destino de auditoría en memoria. SetFailure simula un destino caído.
type AuditLog struct {
	mu     sync.Mutex
	events []repository.AuditEvent
	fail   error
}

var _ repository.AuditRepository = (*AuditLog)(nil)

func NewAuditLog() *AuditLog { return &AuditLog{} }

func (a *AuditLog) Append(_ context.Context, ev repository.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.events = append(a.events, ev)
	return nil
}

// SetFailure hace que Append devuelva err (nil lo restablece).
func (a *AuditLog) SetFailure(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = err
}

// Events copia de los eventos registrados.
func (a *AuditLog) Events() []repository.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.events)
}
