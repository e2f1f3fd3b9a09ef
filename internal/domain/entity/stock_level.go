package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel stock vigente de un producto en un contenedor (ContainerID vacío = sin contenedor).
// Solo lo escriben el registro de movimientos y la anulación.
type StockLevel struct {
	ProductID   string
	ContainerID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// StockKey identifica una fila de stock.
type StockKey struct {
	ProductID   string
	ContainerID string
}

// Key devuelve la clave (producto, contenedor) del nivel.
func (s *StockLevel) Key() StockKey {
	return StockKey{ProductID: s.ProductID, ContainerID: s.ContainerID}
}
