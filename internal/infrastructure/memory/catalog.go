package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// Catalog catálogo en memoria (productos, contenedores, motivos).
type Catalog struct {
	mu         sync.RWMutex
	products   map[string]entity.Product
	containers map[string]entity.Container
	reasons    map[string]entity.Reason
}

var _ repository.CatalogRepository = (*Catalog)(nil)

// NewCatalog crea un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		products:   make(map[string]entity.Product),
		containers: make(map[string]entity.Container),
		reasons:    make(map[string]entity.Reason),
	}
}

func (c *Catalog) PutProduct(p entity.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *Catalog) PutContainer(ct entity.Container) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containers[ct.ID] = ct
}

func (c *Catalog) PutReason(r entity.Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons[r.ID] = r
}

func (c *Catalog) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *Catalog) GetContainer(_ context.Context, id string) (*entity.Container, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ct, ok := c.containers[id]
	if !ok {
		return nil, nil
	}
	return &ct, nil
}

func (c *Catalog) GetReason(_ context.Context, id string) (*entity.Reason, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reasons[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// UpsertProduct alta o reemplazo de un producto (carga del catálogo desde archivo).
func (c *Catalog) UpsertProduct(_ context.Context, p *entity.Product) error {
	c.PutProduct(*p)
	return nil
}

// UpsertContainer alta o reemplazo de un contenedor.
func (c *Catalog) UpsertContainer(_ context.Context, ct *entity.Container) error {
	c.PutContainer(*ct)
	return nil
}

// UpsertReason alta o reemplazo de un motivo.
func (c *Catalog) UpsertReason(_ context.Context, r *entity.Reason) error {
	c.PutReason(*r)
	return nil
}
