package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

// AnnulmentWindow tiempo durante el cual un movimiento puede anularse, contado desde OccurredAt.
const AnnulmentWindow = 24 * time.Hour

// Eligibility resultado de evaluar si un movimiento puede anularse en un instante dado.
type Eligibility struct {
	Eligible     bool
	Status       entity.MovementStatus
	ElapsedHours decimal.Decimal
	Remaining    time.Duration // 0 si no es elegible
	Deadline     time.Time
}

// Evaluate calcula la elegibilidad de m en now. Función pura: no depende del reloj del cliente.
func Evaluate(m *entity.MovementRecord, now time.Time) Eligibility {
	elapsed := now.Sub(m.OccurredAt)
	deadline := m.OccurredAt.Add(AnnulmentWindow)
	e := Eligibility{
		Status:       m.Status,
		ElapsedHours: elapsedHours(elapsed),
		Deadline:     deadline,
	}
	if m.Status == entity.MovementStatusActive && elapsed <= AnnulmentWindow {
		e.Eligible = true
		e.Remaining = deadline.Sub(now)
	}
	return e
}

// CheckAnnulment devuelve nil si m puede anularse en now, o el error tipado que lo impide.
func CheckAnnulment(m *entity.MovementRecord, now time.Time) error {
	if m.IsAnnulled() {
		return domain.ErrAlreadyAnnulled
	}
	e := Evaluate(m, now)
	if !e.Eligible {
		return &domain.AnnulmentWindowExpiredError{
			MovementID:   m.ID,
			ElapsedHours: e.ElapsedHours,
			LimitHours:   int(AnnulmentWindow / time.Hour),
		}
	}
	return nil
}

// InverseDelta delta que revierte el efecto de m sobre el stock vigente.
func InverseDelta(m *entity.MovementRecord) decimal.Decimal {
	return m.Delta.Neg()
}

func elapsedHours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Hour))).Round(2)
}
