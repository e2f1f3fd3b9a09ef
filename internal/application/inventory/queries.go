package inventory

import (
	"context"
	"encoding/base64"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// Tamaños de página del listado.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// MovementPage una página del listado y el cursor opaco de la siguiente ("" si no hay más).
type MovementPage struct {
	Items      []*entity.MovementRecord
	NextCursor string
}

// ListMovements recorre los movimientos de la empresa de la identidad, del más reciente al más antiguo
// (OccurredAt DESC, ID DESC), pidiendo páginas al repositorio bajo demanda.
// La secuencia es finita y puede recorrerse de nuevo; cada recorrido vuelve a consultar.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, f repository.MovementFilter) iter.Seq2[*entity.MovementRecord, error] {
	return func(yield func(*entity.MovementRecord, error) bool) {
		identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
		if err != nil {
			yield(nil, err)
			return
		}
		f.CompanyID = identity.CompanyID
		if err := validateFilter(f); err != nil {
			yield(nil, err)
			return
		}
		var after *repository.MovementCursor
		for {
			page, err := uc.movements.List(ctx, f, after, DefaultPageSize)
			if err != nil {
				yield(nil, uc.storageErr("list movements", err))
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < DefaultPageSize {
				return
			}
			last := page[len(page)-1]
			after = &repository.MovementCursor{OccurredAt: last.OccurredAt, ID: last.ID}
		}
	}
}

// ListMovementsPage devuelve una página del listado a partir de un cursor opaco.
func (uc *LedgerUseCase) ListMovementsPage(ctx context.Context, f repository.MovementFilter, cursor string, limit int) (MovementPage, error) {
	ctx, span := tracer.Start(ctx, "inventory.ListMovementsPage")
	defer span.End()

	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
	if err != nil {
		return MovementPage{}, fail(span, err)
	}
	f.CompanyID = identity.CompanyID
	if err := validateFilter(f); err != nil {
		return MovementPage{}, fail(span, err)
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	after, err := DecodeCursor(cursor)
	if err != nil {
		return MovementPage{}, fail(span, err)
	}
	// Se pide uno de más para saber si existe una página siguiente.
	items, err := uc.movements.List(ctx, f, after, limit+1)
	if err != nil {
		return MovementPage{}, fail(span, uc.storageErr("list movements", err))
	}
	page := MovementPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(repository.MovementCursor{OccurredAt: last.OccurredAt, ID: last.ID})
	}
	return page, nil
}

// GetMovement devuelve un movimiento visible para la identidad.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, id string) (*entity.MovementRecord, error) {
	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
	if err != nil {
		return nil, err
	}
	return uc.visibleMovement(ctx, identity.CompanyID, id)
}

// GetLevel stock vigente del par (producto, contenedor). Un par sin movimientos vale 0.
// containerID vacío consulta el stock sin contenedor.
func (uc *LedgerUseCase) GetLevel(ctx context.Context, productID, containerID string) (decimal.Decimal, error) {
	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := uc.visibleProduct(ctx, identity.CompanyID, productID); err != nil {
		return decimal.Zero, err
	}
	if containerID != "" {
		if _, err := uc.visibleContainer(ctx, identity.CompanyID, containerID); err != nil {
			return decimal.Zero, err
		}
	}
	level, err := uc.stock.Get(ctx, productID, containerID)
	if err != nil {
		return decimal.Zero, uc.storageErr("get stock", err)
	}
	if level == nil {
		return decimal.Zero, nil
	}
	return level.Quantity, nil
}

// ListLevelsByContainer contenido de un contenedor.
func (uc *LedgerUseCase) ListLevelsByContainer(ctx context.Context, containerID string) ([]*entity.StockLevel, error) {
	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
	if err != nil {
		return nil, err
	}
	if _, err := uc.visibleContainer(ctx, identity.CompanyID, containerID); err != nil {
		return nil, err
	}
	levels, err := uc.stock.ListByContainer(ctx, containerID)
	if err != nil {
		return nil, uc.storageErr("list stock by container", err)
	}
	return levels, nil
}

// ListLevelsByProduct stock de un producto en cada contenedor.
func (uc *LedgerUseCase) ListLevelsByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	identity, err := authz.Require(ctx, uc.authorizer, entity.PermissionMovementsRead)
	if err != nil {
		return nil, err
	}
	if _, err := uc.visibleProduct(ctx, identity.CompanyID, productID); err != nil {
		return nil, err
	}
	levels, err := uc.stock.ListByProduct(ctx, productID)
	if err != nil {
		return nil, uc.storageErr("list stock by product", err)
	}
	return levels, nil
}

func validateFilter(f repository.MovementFilter) error {
	if f.Kind != "" && !f.Kind.Valid() {
		return domain.Invalid("kind", "tipo de movimiento desconocido")
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.Invalid("status", "estado desconocido")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return domain.Invalid("from", "debe ser anterior o igual a to")
	}
	return nil
}

// EncodeCursor serializa la posición de keyset como token opaco.
func EncodeCursor(c repository.MovementCursor) string {
	raw := c.OccurredAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor interpreta un token de EncodeCursor; "" es el inicio del listado.
func DecodeCursor(token string) (*repository.MovementCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.Invalid("cursor", "cursor inválido")
	}
	at, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, domain.Invalid("cursor", "cursor inválido")
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, domain.Invalid("cursor", "cursor inválido")
	}
	return &repository.MovementCursor{OccurredAt: t, ID: id}, nil
}
