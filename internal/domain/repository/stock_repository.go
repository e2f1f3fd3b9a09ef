package repository

import (
	"context"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por producto+contenedor.
// Save y GetForUpdate solo se usan dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el stock vigente; una fila inexistente es stock 0, nunca un error.
	Get(ctx context.Context, productID, containerID string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila (creándola en 0 si no existe) hasta el fin de la transacción.
	// Una espera que supera el límite devuelve domain.ErrConflict.
	GetForUpdate(ctx context.Context, productID, containerID string) (*entity.StockLevel, error)
	Save(ctx context.Context, level *entity.StockLevel) error
	ListByContainer(ctx context.Context, containerID string) ([]*entity.StockLevel, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error)
}
