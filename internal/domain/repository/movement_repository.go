package repository

import (
	"context"
	"time"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

// MovementFilter filtros del listado de movimientos. Campos vacíos/nil no filtran.
type MovementFilter struct {
	CompanyID   string
	ProductID   string
	ContainerID *string // puntero a "" filtra movimientos sin contenedor
	Kind        entity.MovementKind
	Status      entity.MovementStatus
	From        *time.Time // inclusive, sobre OccurredAt
	To          *time.Time // inclusive, sobre OccurredAt
}

// MovementCursor posición de keyset (OccurredAt DESC, ID DESC): la página siguiente empieza después de ella.
type MovementCursor struct {
	OccurredAt time.Time
	ID         string
}

// MovementRepository define el puerto de persistencia del libro de movimientos.
// Los métodos de escritura y GetForUpdate deben usarse dentro de TxRunner.Run.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.MovementRecord) error
	GetByID(ctx context.Context, id string) (*entity.MovementRecord, error)
	// GetForUpdate obtiene el movimiento bloqueando su fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.MovementRecord, error)
	// MarkAnnulled persiste solo el bloque de estado (Status, AnnulmentReason, AnnulledAt, AnnulledBy).
	MarkAnnulled(ctx context.Context, m *entity.MovementRecord) error
	// List devuelve hasta limit registros ordenados por OccurredAt DESC, ID DESC, posteriores a after.
	List(ctx context.Context, f MovementFilter, after *MovementCursor, limit int) ([]*entity.MovementRecord, error)
}
