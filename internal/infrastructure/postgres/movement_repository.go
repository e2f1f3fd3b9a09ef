package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementsTable = "inventory_movements"

var movementColumns = []string{
	"id", "company_id", "product_id", "container_id", "reason_id", "kind",
	"quantity", "delta", "unit_price", "stock_before", "stock_after",
	"document_number", "note", "occurred_at", "created_at", "created_by",
	"status", "annulment_reason", "annulled_at", "annulled_by",
}

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

type movementRow struct {
	ID              string          `db:"id"`
	CompanyID       string          `db:"company_id"`
	ProductID       string          `db:"product_id"`
	ContainerID     *string         `db:"container_id"`
	ReasonID        string          `db:"reason_id"`
	Kind            string          `db:"kind"`
	Quantity        decimal.Decimal `db:"quantity"`
	Delta           decimal.Decimal `db:"delta"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	StockBefore     decimal.Decimal `db:"stock_before"`
	StockAfter      decimal.Decimal `db:"stock_after"`
	DocumentNumber  *string         `db:"document_number"`
	Note            *string         `db:"note"`
	OccurredAt      time.Time       `db:"occurred_at"`
	CreatedAt       time.Time       `db:"created_at"`
	CreatedBy       string          `db:"created_by"`
	Status          string          `db:"status"`
	AnnulmentReason *string         `db:"annulment_reason"`
	AnnulledAt      *time.Time      `db:"annulled_at"`
	AnnulledBy      *string         `db:"annulled_by"`
}

func (m movementRow) toEntity() *entity.MovementRecord {
	return &entity.MovementRecord{
		ID:              m.ID,
		CompanyID:       m.CompanyID,
		ProductID:       m.ProductID,
		ContainerID:     m.ContainerID,
		ReasonID:        m.ReasonID,
		Kind:            entity.MovementKind(m.Kind),
		Quantity:        m.Quantity,
		Delta:           m.Delta,
		UnitPrice:       m.UnitPrice,
		StockBefore:     m.StockBefore,
		StockAfter:      m.StockAfter,
		DocumentNumber:  m.DocumentNumber,
		Note:            m.Note,
		OccurredAt:      m.OccurredAt.UTC(),
		CreatedAt:       m.CreatedAt.UTC(),
		CreatedBy:       m.CreatedBy,
		Status:          entity.MovementStatus(m.Status),
		AnnulmentReason: m.AnnulmentReason,
		AnnulledAt:      m.AnnulledAt,
		AnnulledBy:      m.AnnulledBy,
	}
}

// Create agrega un registro al libro.
func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	sql, args, err := psql.Insert(movementsTable).Columns(movementColumns...).Values(
		m.ID, m.CompanyID, m.ProductID, m.ContainerID, m.ReasonID, string(m.Kind),
		m.Quantity, m.Delta, m.UnitPrice, m.StockBefore, m.StockAfter,
		m.DocumentNumber, m.Note, m.OccurredAt, m.CreatedAt, m.CreatedBy,
		string(m.Status), m.AnnulmentReason, m.AnnulledAt, m.AnnulledBy,
	).ToSql()
	if err != nil {
		return &domain.StorageError{Op: "build insert movement", Err: err}
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return &domain.StorageError{Op: "insert movement", Err: err}
		}
		return mapError("insert movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	return r.get(ctx, "get movement", psql.Select(movementColumns...).From(movementsTable).Where(squirrel.Eq{"id": id}))
}

// GetForUpdate obtiene el movimiento bloqueando su fila (SELECT FOR UPDATE).
func (r *MovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.MovementRecord, error) {
	return r.get(ctx, "get movement for update",
		psql.Select(movementColumns...).From(movementsTable).Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *MovementRepo) get(ctx context.Context, op string, q squirrel.SelectBuilder) (*entity.MovementRecord, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	var row movementRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return row.toEntity(), nil
}

// MarkAnnulled persiste solo el bloque de estado. Las cantidades y fotos no se tocan.
func (r *MovementRepo) MarkAnnulled(ctx context.Context, m *entity.MovementRecord) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_movements
		SET status = $2, annulment_reason = $3, annulled_at = $4, annulled_by = $5
		WHERE id = $1`,
		m.ID, string(m.Status), m.AnnulmentReason, m.AnnulledAt, m.AnnulledBy)
	if err != nil {
		return mapError("annul movement", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("movimiento", m.ID)
	}
	return nil
}

// List devuelve hasta limit movimientos en orden (occurred_at DESC, id DESC) posteriores al cursor.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.MovementRecord, error) {
	sql, args, err := movementListQuery(f, after, limit).ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: "build list movements", Err: err}
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, mapError("list movements", err)
	}
	out := make([]*entity.MovementRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// movementListQuery arma el SELECT con filtros opcionales y paginación por keyset.
func movementListQuery(f repository.MovementFilter, after *repository.MovementCursor, limit int) squirrel.SelectBuilder {
	q := psql.Select(movementColumns...).From(movementsTable)
	if f.CompanyID != "" {
		q = q.Where(squirrel.Eq{"company_id": f.CompanyID})
	}
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.ContainerID != nil {
		if *f.ContainerID == "" {
			q = q.Where(squirrel.Eq{"container_id": nil})
		} else {
			q = q.Where(squirrel.Eq{"container_id": *f.ContainerID})
		}
	}
	if f.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": string(f.Kind)})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *f.To})
	}
	if after != nil {
		q = q.Where("(occurred_at, id) < (?, ?)", after.OccurredAt, after.ID)
	}
	q = q.OrderBy("occurred_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}
