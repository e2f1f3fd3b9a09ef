package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/insumos-api/internal/domain/repository"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// Auditor implementa AuditSink sobre un AuditRepository.
// Cada evento se escribe en segundo plano; si falla se registra en el log y se descarta.
type Auditor struct {
	repo    repository.AuditRepository
	log     *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAuditor construye el sink de auditoría.
func NewAuditor(repo repository.AuditRepository, log *logger.Logger) *Auditor {
	if log == nil {
		log = logger.Nop()
	}
	return &Auditor{repo: repo, log: log.Named("audit"), timeout: 5 * time.Second}
}

// Emit implementa AuditSink.
func (a *Auditor) Emit(ctx context.Context, ev repository.AuditEvent) {
	// la petición puede terminar antes que la escritura
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.repo.Append(ctx, ev); err != nil {
			a.log.Error().Err(err).
				Str("action", ev.Action).
				Str("table", ev.Table).
				Str("record_id", ev.RecordID).
				Msg("no se pudo registrar el evento de auditoría")
		}
	}()
}

// Wait espera las escrituras en curso (apagado ordenado y tests).
func (a *Auditor) Wait() {
	a.wg.Wait()
}
