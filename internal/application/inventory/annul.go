package inventory

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/inventory"
	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// Límites del motivo de anulación, en runas tras normalizar.
const (
	MinAnnulmentReasonLen = 5
	MaxAnnulmentReasonLen = 500
)

// Annul anula un movimiento ACTIVE dentro de la ventana de 24 horas aplicando el delta inverso
// sobre el stock vigente. El registro conserva sus cantidades y fotos originales; solo cambia su estado.
func (uc *LedgerUseCase) Annul(ctx context.Context, movementID, reason string) (*entity.MovementRecord, error) {
	ctx, span := tracer.Start(ctx, "inventory.Annul", trace.WithAttributes(attribute.String("movement_id", movementID)))
	defer span.End()

	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsAnnul)
	if err != nil {
		return nil, fail(span, err)
	}
	text, err := NormalizeAnnulmentReason(reason)
	if err != nil {
		return nil, fail(span, err)
	}

	// Lectura previa sin bloqueo: visibilidad y política del motivo.
	current, err := uc.visibleMovement(ctx, identity.CompanyID, movementID)
	if err != nil {
		return nil, fail(span, err)
	}
	reasonPolicy, err := uc.catalog.GetReason(ctx, current.ReasonID)
	if err != nil {
		return nil, fail(span, uc.storageErr("get reason", err))
	}

	var annulled *entity.MovementRecord
	err = uc.retry.Do(ctx, func() error {
		return uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
			// El bloqueo del movimiento serializa anulaciones concurrentes: la perdedora ve ANULADO.
			m, err := movRepo.GetForUpdate(ctx, movementID)
			if err != nil {
				return err
			}
			if m == nil || m.CompanyID != identity.CompanyID {
				return domain.NotFound("movimiento", movementID)
			}
			now := uc.now()
			if err := inventory.CheckAnnulment(m, now); err != nil {
				return err
			}
			level, err := stockRepo.GetForUpdate(ctx, m.ProductID, m.ContainerKey())
			if err != nil {
				return err
			}
			after, err := inventory.ApplyDelta(level, inventory.InverseDelta(m), inventory.AllowsNegative(m.Kind, reasonPolicy))
			if err != nil {
				return err
			}
			level.Quantity = after
			level.UpdatedAt = now
			if err := stockRepo.Save(ctx, level); err != nil {
				return err
			}
			m.Status = entity.MovementStatusAnulado
			m.AnnulmentReason = &text
			m.AnnulledAt = &now
			m.AnnulledBy = &identity.UserID
			if err := movRepo.MarkAnnulled(ctx, m); err != nil {
				return err
			}
			annulled = m
			return nil
		})
	})
	if err != nil {
		return nil, fail(span, uc.storageErr("annul movement", err))
	}

	uc.log.Info().
		Str("movement_id", annulled.ID).
		Str("kind", string(annulled.Kind)).
		Str("product_id", annulled.ProductID).
		Str("inverse_delta", inventory.InverseDelta(annulled).String()).
		Str("annulled_by", identity.UserID).
		Msg("movimiento anulado")

	product, _ := uc.catalog.GetProduct(ctx, annulled.ProductID)
	uc.afterCommit(ctx, "annul", annulled, product, invalidation.MutationMovementAnnulled,
		"anulación "+string(annulled.Kind)+" "+annulled.Delta.String()+": "+text)
	return annulled, nil
}

// CheckAnnulmentEligibility informa si el movimiento puede anularse ahora y cuánto tiempo queda.
// Es informativa: Annul vuelve a verificar dentro de la transacción.
func (uc *LedgerUseCase) CheckAnnulmentEligibility(ctx context.Context, movementID string) (inventory.Eligibility, error) {
	ctx, span := tracer.Start(ctx, "inventory.CheckAnnulmentEligibility")
	defer span.End()

	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
	if err != nil {
		return inventory.Eligibility{}, fail(span, err)
	}
	m, err := uc.visibleMovement(ctx, identity.CompanyID, movementID)
	if err != nil {
		return inventory.Eligibility{}, fail(span, err)
	}
	return inventory.Evaluate(m, uc.now()), nil
}

// NormalizeAnnulmentReason recorta espacios, normaliza a NFC y valida la longitud en runas.
func NormalizeAnnulmentReason(reason string) (string, error) {
	s := strings.TrimSpace(norm.NFC.String(reason))
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return "", domain.Invalid("reason", "el motivo de anulación es obligatorio")
	case n < MinAnnulmentReasonLen:
		return "", domain.Invalid("reason", "el motivo de anulación es demasiado corto")
	case n > MaxAnnulmentReasonLen:
		return "", domain.Invalid("reason", "el motivo de anulación excede 500 caracteres")
	}
	return s, nil
}

func (uc *LedgerUseCase) visibleMovement(ctx context.Context, companyID, id string) (*entity.MovementRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Invalid("id", "es obligatorio")
	}
	m, err := uc.movements.GetByID(ctx, id)
	if err != nil {
		return nil, uc.storageErr("get movement", err)
	}
	if m == nil || m.CompanyID != companyID {
		return nil, domain.NotFound("movimiento", id)
	}
	return m, nil
}
