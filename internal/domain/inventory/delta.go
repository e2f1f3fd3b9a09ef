// Package inventory contiene las reglas puras del libro de movimientos:
// cálculo del delta firmado, aplicación sobre el stock vigente y elegibilidad de anulación.
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

// MoneyPlaces decimales de los importes (precio unitario).
const MoneyPlaces = 2

// SignedDelta devuelve (cantidad, delta) para un movimiento.
// ENTRADA y SALIDA exigen quantity > 0; AJUSTE recibe el delta firmado (≠ 0) y la cantidad es su valor absoluto.
func SignedDelta(kind entity.MovementKind, quantity decimal.Decimal) (qty, delta decimal.Decimal, err error) {
	switch kind {
	case entity.MovementKindEntrada:
		if !quantity.IsPositive() {
			return decimal.Zero, decimal.Zero, domain.Invalid("quantity", "debe ser mayor que cero")
		}
		return quantity, quantity, nil
	case entity.MovementKindSalida:
		if !quantity.IsPositive() {
			return decimal.Zero, decimal.Zero, domain.Invalid("quantity", "debe ser mayor que cero")
		}
		return quantity, quantity.Neg(), nil
	case entity.MovementKindAjuste:
		if quantity.IsZero() {
			return decimal.Zero, decimal.Zero, domain.Invalid("quantity", "el ajuste no puede ser cero")
		}
		return quantity.Abs(), quantity, nil
	}
	return decimal.Zero, decimal.Zero, domain.Invalid("kind", "tipo de movimiento desconocido")
}

// ApplyDelta suma delta al stock vigente. Un delta negativo que deja el stock bajo cero se
// rechaza salvo allowNegative; un delta positivo siempre se aplica, aunque el par siga negativo.
func ApplyDelta(level *entity.StockLevel, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	after := level.Quantity.Add(delta)
	if delta.IsNegative() && after.IsNegative() && !allowNegative {
		return level.Quantity, &domain.InsufficientStockError{
			ProductID:   level.ProductID,
			ContainerID: level.ContainerID,
			Available:   level.Quantity,
			Requested:   delta.Neg(),
		}
	}
	return after, nil
}

// AllowsNegative política de stock negativo para un movimiento de tipo kind con el motivo dado.
// Solo un AJUSTE cuyo motivo lo permite puede dejar el stock bajo cero.
func AllowsNegative(kind entity.MovementKind, reason *entity.Reason) bool {
	return kind == entity.MovementKindAjuste && reason != nil && reason.AllowsNegative
}

// RoundMoney redondea un importe a MoneyPlaces decimales.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(MoneyPlaces)
}
