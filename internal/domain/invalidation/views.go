// Package invalidation declara qué vistas derivadas quedan obsoletas tras cada mutación del libro.
// AffectedViews es la tabla; ViewSources y MutationWrites describen lecturas y escrituras para verificarla.
package invalidation

import (
	"slices"
	"time"
)

// MutationKind mutación del libro que dispara invalidación.
type MutationKind string

const (
	MutationMovementRecorded MutationKind = "movement.recorded"
	MutationMovementAnnulled MutationKind = "movement.annulled"
)

// ViewKey identificador de una vista derivada.
type ViewKey string

const (
	ViewStockCurrent          ViewKey = "stock.current"           // stock vigente por (producto, contenedor)
	ViewStockByProduct        ViewKey = "stock.by_product"        // stock total de un producto
	ViewContainerContents     ViewKey = "container.contents"      // contenido de un contenedor
	ViewCategoryAggregates    ViewKey = "category.aggregates"     // totales por categoría
	ViewProductAggregates     ViewKey = "product.aggregates"      // totales y últimos movimientos por producto
	ViewDashboardLowStock     ViewKey = "dashboard.low_stock"     // insumos bajo mínimo
	ViewDashboardExpiringSoon ViewKey = "dashboard.expiring_soon" // insumos por vencer (lee entradas y stock)
	ViewMovementsList         ViewKey = "movements.list"
	ViewMovementDetail        ViewKey = "movements.detail"
)

// Source estructura persistida que una vista lee o una mutación escribe.
type Source string

const (
	SourceStockLevel     Source = "stock_level"
	SourceMovementRecord Source = "movement_record"
)

// AllMutations enumera todas las mutaciones conocidas.
var AllMutations = []MutationKind{MutationMovementRecorded, MutationMovementAnnulled}

// AllViews enumera todas las vistas derivadas conocidas.
var AllViews = []ViewKey{
	ViewStockCurrent, ViewStockByProduct, ViewContainerContents, ViewCategoryAggregates,
	ViewProductAggregates, ViewDashboardLowStock, ViewDashboardExpiringSoon,
	ViewMovementsList, ViewMovementDetail,
}

// ViewSources qué lee cada vista.
var ViewSources = map[ViewKey][]Source{
	ViewStockCurrent:          {SourceStockLevel},
	ViewStockByProduct:        {SourceStockLevel},
	ViewContainerContents:     {SourceStockLevel},
	ViewCategoryAggregates:    {SourceStockLevel, SourceMovementRecord},
	ViewProductAggregates:     {SourceStockLevel, SourceMovementRecord},
	ViewDashboardLowStock:     {SourceStockLevel},
	ViewDashboardExpiringSoon: {SourceStockLevel, SourceMovementRecord},
	ViewMovementsList:         {SourceMovementRecord},
	ViewMovementDetail:        {SourceMovementRecord},
}

// MutationWrites qué escribe cada mutación.
var MutationWrites = map[MutationKind][]Source{
	MutationMovementRecorded: {SourceStockLevel, SourceMovementRecord},
	MutationMovementAnnulled: {SourceStockLevel, SourceMovementRecord},
}

// affected tabla declarativa mutación → vistas obsoletas.
// El registro nuevo no tiene detalle previo en caché, pero la vista de detalle se incluye
// igual: un cliente puede haber consultado el id antes de que existiera (404 cacheado).
var affected = map[MutationKind][]ViewKey{
	MutationMovementRecorded: {
		ViewStockCurrent, ViewStockByProduct, ViewContainerContents, ViewCategoryAggregates,
		ViewProductAggregates, ViewDashboardLowStock, ViewDashboardExpiringSoon,
		ViewMovementsList, ViewMovementDetail,
	},
	MutationMovementAnnulled: {
		ViewStockCurrent, ViewStockByProduct, ViewContainerContents, ViewCategoryAggregates,
		ViewProductAggregates, ViewDashboardLowStock, ViewDashboardExpiringSoon,
		ViewMovementsList, ViewMovementDetail,
	},
}

// AffectedViews devuelve las vistas que deben recalcularse tras una mutación (copia ordenada).
func AffectedViews(kind MutationKind) []ViewKey {
	views := slices.Clone(affected[kind])
	slices.Sort(views)
	return views
}

// Scope acota la invalidación a las entidades tocadas por la mutación.
type Scope struct {
	CompanyID   string
	ProductID   string
	ContainerID string
	CategoryID  string
	MovementID  string
}

// Event invalidación lista para publicarse.
type Event struct {
	Mutation   MutationKind
	Views      []ViewKey
	Scope      Scope
	OccurredAt time.Time
}

// NewEvent construye el evento con las vistas afectadas por kind.
func NewEvent(kind MutationKind, scope Scope, at time.Time) Event {
	return Event{
		Mutation:   kind,
		Views:      AffectedViews(kind),
		Scope:      scope,
		OccurredAt: at,
	}
}

// Tags devuelve una etiqueta por vista, acotada por el identificador que la vista usa como clave.
func (e Event) Tags() []string {
	tags := make([]string, 0, len(e.Views))
	for _, v := range e.Views {
		tags = append(tags, string(v)+":"+e.scopeFor(v))
	}
	return tags
}

func (e Event) scopeFor(v ViewKey) string {
	s := e.Scope
	switch v {
	case ViewStockCurrent:
		return s.ProductID + "/" + s.ContainerID
	case ViewStockByProduct, ViewProductAggregates:
		return s.ProductID
	case ViewContainerContents:
		return s.ContainerID
	case ViewCategoryAggregates:
		return s.CategoryID
	case ViewMovementDetail:
		return s.MovementID
	default:
		return s.CompanyID
	}
}
