package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = "product_id, container_id, quantity, updated_at"

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// Los movimientos sin contenedor usan container_id = ''.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

type stockRow struct {
	ProductID   string          `db:"product_id"`
	ContainerID string          `db:"container_id"`
	Quantity    decimal.Decimal `db:"quantity"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (s stockRow) toEntity() *entity.StockLevel {
	return &entity.StockLevel{
		ProductID:   s.ProductID,
		ContainerID: s.ContainerID,
		Quantity:    s.Quantity,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Get obtiene el stock vigente; sin fila el stock es 0.
func (r *StockRepo) Get(ctx context.Context, productID, containerID string) (*entity.StockLevel, error) {
	var row stockRow
	err := pgxscan.Get(ctx, r.q, &row,
		`SELECT `+stockColumns+` FROM stock_levels WHERE product_id = $1 AND container_id = $2`,
		productID, containerID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return &entity.StockLevel{ProductID: productID, ContainerID: containerID, Quantity: decimal.Zero}, nil
		}
		return nil, mapError("get stock", err)
	}
	return row.toEntity(), nil
}

// GetForUpdate asegura que la fila exista y la bloquea (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, containerID string) (*entity.StockLevel, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, container_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, container_id) DO NOTHING`, productID, containerID); err != nil {
		return nil, mapError("ensure stock row", err)
	}
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, `
		SELECT `+stockColumns+`
		FROM stock_levels WHERE product_id = $1 AND container_id = $2
		FOR UPDATE`, productID, containerID).Scan(&s.ProductID, &s.ContainerID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, ContainerID: containerID, Quantity: decimal.Zero}, nil
		}
		return nil, mapError("get stock for update", err)
	}
	return &s, nil
}

// Save escribe la cantidad del par (producto, contenedor).
func (r *StockRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, container_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, container_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		level.ProductID, level.ContainerID, level.Quantity, level.UpdatedAt)
	return mapError("save stock", err)
}

// ListByContainer niveles de un contenedor ordenados por producto.
func (r *StockRepo) ListByContainer(ctx context.Context, containerID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, "list stock by container",
		`SELECT `+stockColumns+` FROM stock_levels WHERE container_id = $1 ORDER BY product_id`, containerID)
}

// ListByProduct niveles de un producto ordenados por contenedor.
func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, "list stock by product",
		`SELECT `+stockColumns+` FROM stock_levels WHERE product_id = $1 ORDER BY container_id`, productID)
}

func (r *StockRepo) list(ctx context.Context, op, sql string, arg string) ([]*entity.StockLevel, error) {
	var rows []stockRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, arg); err != nil {
		return nil, mapError(op, err)
	}
	out := make([]*entity.StockLevel, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
