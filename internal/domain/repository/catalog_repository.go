package repository

import (
	"context"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

// CatalogRepository lecturas del colaborador de catálogo (productos, contenedores, motivos).
// Devuelve (nil, nil) si el id no existe; la visibilidad la decide el caso de uso.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	GetContainer(ctx context.Context, id string) (*entity.Container, error)
	GetReason(ctx context.Context, id string) (*entity.Reason, error)
}
