// Package inventory implementa el libro de movimientos de insumos: registro transaccional,
// consultas, anulación dentro de la ventana y el despacho de auditoría e invalidación tras cada commit.
package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/inventory"
	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

var tracer = otel.Tracer("insumos/inventory")

// MaxClockSkew tolerancia para un OccurredAt en el futuro.
const MaxClockSkew = 5 * time.Minute

const (
	auditTableMovements = "inventory_movements"
	maxNoteLen          = 500
	maxDocumentLen      = 60
)

// LedgerDeps dependencias del libro de movimientos.
type LedgerDeps struct {
	TxRunner    TxRunner
	Catalog     repository.CatalogRepository
	Movements   repository.MovementRepository // lecturas fuera de transacción
	Stock       repository.StockRepository    // lecturas fuera de transacción
	Authorizer  authz.Authorizer
	Audit       AuditSink
	Invalidator Invalidator
	Logger      *logger.Logger
	Clock       Clock
	Retry       *RetryPolicy
}

// LedgerUseCase registra, consulta y anula movimientos de inventario.
type LedgerUseCase struct {
	txRunner    TxRunner
	catalog     repository.CatalogRepository
	movements   repository.MovementRepository
	stock       repository.StockRepository
	authorizer  authz.Authorizer
	audit       AuditSink
	invalidator Invalidator
	log         *logger.Logger
	clock       Clock
	retry       RetryPolicy
}

// NewLedgerUseCase construye el caso de uso. Audit, Invalidator, Logger, Clock y Retry son opcionales.
func NewLedgerUseCase(d LedgerDeps) *LedgerUseCase {
	uc := &LedgerUseCase{
		txRunner:    d.TxRunner,
		catalog:     d.Catalog,
		movements:   d.Movements,
		stock:       d.Stock,
		authorizer:  d.Authorizer,
		audit:       d.Audit,
		invalidator: d.Invalidator,
		log:         d.Logger,
		clock:       d.Clock,
		retry:       DefaultRetryPolicy,
	}
	if uc.authorizer == nil {
		uc.authorizer = authz.NewRoleAuthorizer(nil)
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	uc.log = uc.log.Named("ledger")
	if uc.clock == nil {
		uc.clock = time.Now
	}
	if d.Retry != nil {
		uc.retry = *d.Retry
	}
	return uc
}

// MovementInput datos para registrar un movimiento.
// Quantity es la cantidad (> 0) en ENTRADA/SALIDA y el delta firmado (≠ 0) en AJUSTE.
type MovementInput struct {
	ProductID      string
	ContainerID    *string
	ReasonID       string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DocumentNumber *string
	Note           *string
	OccurredAt     *time.Time // nil = ahora
}

// RecordMovement valida la entrada, bloquea la fila de stock del par (producto, contenedor),
// aplica el delta y agrega el registro ACTIVE en la misma transacción.
// Tras el commit emite auditoría e invalidación.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, in MovementInput) (*entity.MovementRecord, error) {
	ctx, span := tracer.Start(ctx, "inventory.RecordMovement",
		trace.WithAttributes(attribute.String("product_id", in.ProductID), attribute.String("reason_id", in.ReasonID)))
	defer span.End()

	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsCreate)
	if err != nil {
		return nil, fail(span, err)
	}
	now := uc.now()

	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fail(span, domain.Invalid("product_id", "es obligatorio"))
	}
	if strings.TrimSpace(in.ReasonID) == "" {
		return nil, fail(span, domain.Invalid("reason_id", "es obligatorio"))
	}
	if in.UnitPrice.IsNegative() {
		return nil, fail(span, domain.Invalid("unit_price", "no puede ser negativo"))
	}
	occurredAt, err := resolveOccurredAt(in.OccurredAt, now)
	if err != nil {
		return nil, fail(span, err)
	}
	note, err := optionalText("note", in.Note, maxNoteLen)
	if err != nil {
		return nil, fail(span, err)
	}
	doc, err := optionalText("document_number", in.DocumentNumber, maxDocumentLen)
	if err != nil {
		return nil, fail(span, err)
	}

	product, err := uc.visibleProduct(ctx, identity.CompanyID, in.ProductID)
	if err != nil {
		return nil, fail(span, err)
	}
	reason, err := uc.visibleReason(ctx, identity.CompanyID, in.ReasonID)
	if err != nil {
		return nil, fail(span, err)
	}
	qty, delta, err := inventory.SignedDelta(reason.Kind, in.Quantity)
	if err != nil {
		return nil, fail(span, err)
	}
	containerID, err := uc.resolveContainer(ctx, identity.CompanyID, reason, in.ContainerID)
	if err != nil {
		return nil, fail(span, err)
	}

	rec := &entity.MovementRecord{
		ID:             uuid.New().String(),
		CompanyID:      identity.CompanyID,
		ProductID:      product.ID,
		ContainerID:    containerID,
		ReasonID:       reason.ID,
		Kind:           reason.Kind,
		Quantity:       qty,
		Delta:          delta,
		UnitPrice:      inventory.RoundMoney(in.UnitPrice),
		DocumentNumber: doc,
		Note:           note,
		OccurredAt:     occurredAt,
		CreatedAt:      now,
		CreatedBy:      identity.UserID,
		Status:         entity.MovementStatusActive,
	}
	allowNegative := inventory.AllowsNegative(reason.Kind, reason)

	err = uc.retry.Do(ctx, func() error {
		return uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
			// Bloquea la fila del par (producto, contenedor) hasta el commit
			level, err := stockRepo.GetForUpdate(ctx, rec.ProductID, rec.ContainerKey())
			if err != nil {
				return err
			}
			after, err := inventory.ApplyDelta(level, delta, allowNegative)
			if err != nil {
				return err
			}
			rec.StockBefore = level.Quantity
			rec.StockAfter = after
			level.Quantity = after
			level.UpdatedAt = now
			if err := stockRepo.Save(ctx, level); err != nil {
				return err
			}
			return movRepo.Create(ctx, rec)
		})
	})
	if err != nil {
		return nil, fail(span, uc.storageErr("record movement", err))
	}

	uc.log.Info().
		Str("movement_id", rec.ID).
		Str("kind", string(rec.Kind)).
		Str("product_id", rec.ProductID).
		Str("container_id", rec.ContainerKey()).
		Str("delta", rec.Delta.String()).
		Str("stock_after", rec.StockAfter.String()).
		Msg("movimiento registrado")

	uc.afterCommit(ctx, "create", rec, product, invalidation.MutationMovementRecorded,
		"registro "+string(rec.Kind)+" "+rec.Delta.String()+" (stock "+rec.StockBefore.String()+" → "+rec.StockAfter.String()+")")
	return rec, nil
}

// afterCommit emite auditoría e invalidación. Ninguna de las dos puede revertir la mutación.
func (uc *LedgerUseCase) afterCommit(ctx context.Context, action string, rec *entity.MovementRecord,
	product *entity.Product, kind invalidation.MutationKind, description string) {
	if uc.audit != nil {
		uc.audit.Emit(ctx, repository.AuditEvent{
			Action:      action,
			Table:       auditTableMovements,
			RecordID:    rec.ID,
			Description: description,
			Actor:       actorOf(rec, action),
			Timestamp:   uc.now(),
		})
	}
	if uc.invalidator != nil {
		scope := invalidation.Scope{
			CompanyID:   rec.CompanyID,
			ProductID:   rec.ProductID,
			ContainerID: rec.ContainerKey(),
			MovementID:  rec.ID,
		}
		if product != nil {
			scope.CategoryID = product.CategoryID
		}
		uc.invalidator.Notify(invalidation.NewEvent(kind, scope, uc.now()))
	}
}

func actorOf(rec *entity.MovementRecord, action string) string {
	if action == "annul" && rec.AnnulledBy != nil {
		return *rec.AnnulledBy
	}
	return rec.CreatedBy
}

func (uc *LedgerUseCase) visibleProduct(ctx context.Context, companyID, id string) (*entity.Product, error) {
	p, err := uc.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, domain.Storage("get product", err)
	}
	if p == nil || p.CompanyID != companyID || !p.Active {
		return nil, domain.NotFound("producto", id)
	}
	return p, nil
}

// visibleReason los motivos sin empresa son compartidos por todas.
func (uc *LedgerUseCase) visibleReason(ctx context.Context, companyID, id string) (*entity.Reason, error) {
	r, err := uc.catalog.GetReason(ctx, id)
	if err != nil {
		return nil, domain.Storage("get reason", err)
	}
	if r == nil || (r.CompanyID != "" && r.CompanyID != companyID) || !r.Active {
		return nil, domain.NotFound("motivo", id)
	}
	if !r.Kind.Valid() {
		return nil, domain.Invalid("reason_id", "el motivo tiene un tipo de movimiento desconocido")
	}
	return r, nil
}

func (uc *LedgerUseCase) visibleContainer(ctx context.Context, companyID, id string) (*entity.Container, error) {
	c, err := uc.catalog.GetContainer(ctx, id)
	if err != nil {
		return nil, domain.Storage("get container", err)
	}
	if c == nil || c.CompanyID != companyID || !c.Active {
		return nil, domain.NotFound("contenedor", id)
	}
	return c, nil
}

// resolveContainer aplica la política de contenedor del motivo.
func (uc *LedgerUseCase) resolveContainer(ctx context.Context, companyID string, reason *entity.Reason, containerID *string) (*string, error) {
	given := containerID != nil && strings.TrimSpace(*containerID) != ""
	if !reason.RequiresContainer {
		if given {
			return nil, domain.Invalid("container_id", "el motivo no admite contenedor")
		}
		return nil, nil
	}
	if !given {
		return nil, domain.Invalid("container_id", "el motivo exige contenedor")
	}
	c, err := uc.visibleContainer(ctx, companyID, strings.TrimSpace(*containerID))
	if err != nil {
		return nil, err
	}
	id := c.ID
	return &id, nil
}

func resolveOccurredAt(at *time.Time, now time.Time) (time.Time, error) {
	if at == nil || at.IsZero() {
		return now, nil
	}
	t := at.UTC().Truncate(time.Microsecond)
	if t.After(now.Add(MaxClockSkew)) {
		return time.Time{}, domain.Invalid("occurred_at", "no puede estar en el futuro")
	}
	return t, nil
}

func optionalText(field string, v *string, max int) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	if len([]rune(s)) > max {
		return nil, domain.Invalid(field, "excede la longitud máxima")
	}
	return &s, nil
}

// now reloj del servidor en UTC con la precisión de timestamptz.
func (uc *LedgerUseCase) now() time.Time {
	return uc.clock().UTC().Truncate(time.Microsecond)
}

// storageErr registra y envuelve los errores que no pertenecen a la taxonomía de dominio.
func (uc *LedgerUseCase) storageErr(op string, err error) error {
	wrapped := domain.Storage(op, err)
	if _, ok := wrapped.(*domain.StorageError); ok {
		uc.log.Error().Err(err).Str("op", op).Msg("falla de persistencia")
	}
	return wrapped
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
