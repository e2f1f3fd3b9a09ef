package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/inventory"
)

// RecordMovementRequest body para POST /api/inventory/movements.
// En AJUSTE quantity es el delta firmado; en ENTRADA/SALIDA debe ser positiva.
type RecordMovementRequest struct {
	ProductID      string          `json:"product_id"`
	ContainerID    *string         `json:"container_id,omitempty"`
	ReasonID       string          `json:"reason_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DocumentNumber *string         `json:"document_number,omitempty"`
	Note           *string         `json:"note,omitempty"`
	OccurredAt     *time.Time      `json:"occurred_at,omitempty"`
}

// AnnulMovementRequest body para POST /api/inventory/movements/:id/annul.
type AnnulMovementRequest struct {
	Reason string `json:"reason"`
}

// ListMovementsQuery filtros de GET /api/inventory/movements.
type ListMovementsQuery struct {
	Limit       int    `query:"limit"`
	Cursor      string `query:"cursor"`
	ProductID   string `query:"product_id"`
	ContainerID string `query:"container_id"`
	Kind        string `query:"kind"`
	Status      string `query:"status"`
	From        string `query:"from"` // RFC3339
	To          string `query:"to"`   // RFC3339
}

// MovementResponse registro del libro tal como se expone por HTTP.
type MovementResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ContainerID     *string         `json:"container_id,omitempty"`
	ReasonID        string          `json:"reason_id"`
	Kind            string          `json:"kind"`
	Quantity        decimal.Decimal `json:"quantity"`
	Delta           decimal.Decimal `json:"delta"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	StockBefore     decimal.Decimal `json:"stock_before"`
	StockAfter      decimal.Decimal `json:"stock_after"`
	DocumentNumber  *string         `json:"document_number,omitempty"`
	Note            *string         `json:"note,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `json:"created_by"`
	Status          string          `json:"status"`
	AnnulmentReason *string         `json:"annulment_reason,omitempty"`
	AnnulledAt      *time.Time      `json:"annulled_at,omitempty"`
	AnnulledBy      *string         `json:"annulled_by,omitempty"`
}

// MovementPageResponse página del listado con el cursor de la siguiente.
type MovementPageResponse struct {
	Items      []MovementResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// EligibilityResponse estado de la ventana de anulación de un movimiento.
type EligibilityResponse struct {
	MovementID       string          `json:"movement_id"`
	Eligible         bool            `json:"eligible"`
	Status           string          `json:"status"`
	ElapsedHours     decimal.Decimal `json:"elapsed_hours"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	Deadline         time.Time       `json:"deadline"`
}

// StockLevelResponse stock vigente de un par (producto, contenedor).
type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	ContainerID string          `json:"container_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// ToMovementResponse convierte la entidad al DTO de salida.
func ToMovementResponse(m *entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		ContainerID:     m.ContainerID,
		ReasonID:        m.ReasonID,
		Kind:            string(m.Kind),
		Quantity:        m.Quantity,
		Delta:           m.Delta,
		UnitPrice:       m.UnitPrice.Round(2),
		StockBefore:     m.StockBefore,
		StockAfter:      m.StockAfter,
		DocumentNumber:  m.DocumentNumber,
		Note:            m.Note,
		OccurredAt:      m.OccurredAt,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
		Status:          string(m.Status),
		AnnulmentReason: m.AnnulmentReason,
		AnnulledAt:      m.AnnulledAt,
		AnnulledBy:      m.AnnulledBy,
	}
}

// ToMovementResponses convierte una lista de entidades.
func ToMovementResponses(items []*entity.MovementRecord) []MovementResponse {
	out := make([]MovementResponse, 0, len(items))
	for _, m := range items {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToEligibilityResponse convierte el resultado de la evaluación de la ventana.
func ToEligibilityResponse(movementID string, e inventory.Eligibility) EligibilityResponse {
	return EligibilityResponse{
		MovementID:       movementID,
		Eligible:         e.Eligible,
		Status:           string(e.Status),
		ElapsedHours:     e.ElapsedHours,
		RemainingSeconds: int64(e.Remaining.Seconds()),
		Deadline:         e.Deadline,
	}
}

// ToStockLevelResponse convierte un nivel de stock.
func ToStockLevelResponse(l *entity.StockLevel) StockLevelResponse {
	resp := StockLevelResponse{ProductID: l.ProductID, ContainerID: l.ContainerID, Quantity: l.Quantity}
	if !l.UpdatedAt.IsZero() {
		at := l.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}
