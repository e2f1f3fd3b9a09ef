package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind naturaleza del movimiento; la fija el motivo (Reason) que se elige al registrarlo.
type MovementKind string

const (
	MovementKindEntrada MovementKind = "ENTRADA" // recepción de insumos
	MovementKindSalida  MovementKind = "SALIDA"  // retiro / consumo
	MovementKindAjuste  MovementKind = "AJUSTE"  // corrección con delta firmado
)

// Valid indica si k es uno de los tipos conocidos.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindEntrada, MovementKindSalida, MovementKindAjuste:
		return true
	}
	return false
}

// MovementStatus estado del registro en el libro de movimientos.
type MovementStatus string

const (
	MovementStatusActive  MovementStatus = "ACTIVE"
	MovementStatusAnulado MovementStatus = "ANULADO"
)

// Valid indica si s es un estado conocido.
func (s MovementStatus) Valid() bool {
	return s == MovementStatusActive || s == MovementStatusAnulado
}

// MovementRecord registro del libro de movimientos.
// Todo salvo el bloque de estado (Status, Annulment*) es inmutable una vez creado:
// StockBefore/StockAfter son la foto del stock al momento de aplicarlo y nunca se recalculan.
type MovementRecord struct {
	ID             string
	CompanyID      string
	ProductID      string
	ContainerID    *string // nil si el motivo no exige contenedor
	ReasonID       string
	Kind           MovementKind
	Quantity       decimal.Decimal // siempre > 0
	Delta          decimal.Decimal // +Quantity entrada, -Quantity salida, firmado en ajuste
	UnitPrice      decimal.Decimal // 2 decimales
	StockBefore    decimal.Decimal
	StockAfter     decimal.Decimal
	DocumentNumber *string
	Note           *string
	OccurredAt     time.Time // reloj de la ventana de anulación y del orden del listado
	CreatedAt      time.Time
	CreatedBy      string

	Status          MovementStatus
	AnnulmentReason *string
	AnnulledAt      *time.Time
	AnnulledBy      *string
}

// ContainerKey devuelve el contenedor como clave de stock ("" para movimientos sin contenedor).
func (m *MovementRecord) ContainerKey() string {
	if m.ContainerID == nil {
		return ""
	}
	return *m.ContainerID
}

// IsAnnulled indica si el registro ya fue anulado.
func (m *MovementRecord) IsAnnulled() bool {
	return m.Status == MovementStatusAnulado
}
