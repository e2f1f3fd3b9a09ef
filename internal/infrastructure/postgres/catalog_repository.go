package postgres

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lecturas de productos, contenedores y motivos.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// GetProduct obtiene un producto por ID; (nil, nil) si no existe.
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, category_id, sku, name, unit_measure, active, created_at, updated_at
		FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.CompanyID, &p.CategoryID, &p.SKU, &p.Name, &p.UnitMeasure, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return &p, nil
}

// GetContainer obtiene un contenedor por ID; (nil, nil) si no existe.
func (r *CatalogRepo) GetContainer(ctx context.Context, id string) (*entity.Container, error) {
	var c entity.Container
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, name, active, created_at, updated_at
		FROM containers WHERE id = $1`, id).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, mapError("get container", err)
	}
	return &c, nil
}

// GetReason obtiene un motivo de movimiento por ID; (nil, nil) si no existe.
func (r *CatalogRepo) GetReason(ctx context.Context, id string) (*entity.Reason, error) {
	var (
		rs   entity.Reason
		kind string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, name, kind, requires_container, allows_negative, active
		FROM movement_reasons WHERE id = $1`, id).Scan(
		&rs.ID, &rs.CompanyID, &rs.Name, &kind, &rs.RequiresContainer, &rs.AllowsNegative, &rs.Active,
	)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, mapError("get reason", err)
	}
	rs.Kind = entity.MovementKind(kind)
	return &rs, nil
}

// UpsertProduct alta o actualización de un producto (seed y pruebas de integración).
func (r *CatalogRepo) UpsertProduct(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, company_id, category_id, sku, name, unit_measure, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			category_id = EXCLUDED.category_id, sku = EXCLUDED.sku, name = EXCLUDED.name,
			unit_measure = EXCLUDED.unit_measure, active = EXCLUDED.active, updated_at = now()`,
		p.ID, p.CompanyID, p.CategoryID, p.SKU, p.Name, p.UnitMeasure, p.Active)
	return mapError("upsert product", err)
}

// UpsertContainer alta o actualización de un contenedor.
func (r *CatalogRepo) UpsertContainer(ctx context.Context, c *entity.Container) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO containers (id, company_id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active, updated_at = now()`,
		c.ID, c.CompanyID, c.Name, c.Active)
	return mapError("upsert container", err)
}

// UpsertReason alta o actualización de un motivo.
func (r *CatalogRepo) UpsertReason(ctx context.Context, rs *entity.Reason) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO movement_reasons (id, company_id, name, kind, requires_container, allows_negative, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, kind = EXCLUDED.kind, requires_container = EXCLUDED.requires_container,
			allows_negative = EXCLUDED.allows_negative, active = EXCLUDED.active`,
		rs.ID, rs.CompanyID, rs.Name, string(rs.Kind), rs.RequiresContainer, rs.AllowsNegative, rs.Active)
	return mapError("upsert reason", err)
}
