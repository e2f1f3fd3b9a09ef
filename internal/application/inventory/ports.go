package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela) no queda ninguna escritura aplicada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// AuditSink recibe un evento por cada mutación confirmada. No devuelve error: las fallas se registran y se descartan.
type AuditSink interface {
	Emit(ctx context.Context, ev repository.AuditEvent)
}

// Invalidator recibe los eventos de invalidación tras cada commit. No bloquea al llamador.
type Invalidator interface {
	Notify(ev invalidation.Event)
}

// InvalidationPublisher entrega un evento de invalidación a sus consumidores (Kafka, log).
type InvalidationPublisher interface {
	Publish(ctx context.Context, ev invalidation.Event) error
}

// Clock reloj del servidor; la ventana de anulación nunca usa el reloj del cliente.
type Clock func() time.Time
