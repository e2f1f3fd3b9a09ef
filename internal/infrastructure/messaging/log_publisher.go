package messaging

import (
	"context"

	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// LogPublisher registra las invalidaciones en el log; se usa cuando no hay brokers configurados.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Named("invalidation")}
}

// Publish implementa inventory.InvalidationPublisher.
func (p *LogPublisher) Publish(_ context.Context, ev invalidation.Event) error {
	p.log.Info().
		Str("mutation", string(ev.Mutation)).
		Str("company_id", ev.Scope.CompanyID).
		Str("movement_id", ev.Scope.MovementID).
		Strs("tags", ev.Tags()).
		Msg("vistas invalidadas")
	return nil
}
