package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/application/inventory"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger     *inventory.LedgerUseCase
	Authorizer authz.Authorizer // nil usa los permisos por rol por defecto
	JWTSecret  string
	Logger     *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Authorizer == nil {
		deps.Authorizer = authz.NewRoleAuthorizer(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	api := app.Group("/api", RequestLogger(deps.Logger.Named("http")))

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	canRead := RequirePermission(deps.Authorizer, entity.PermissionMovementsRead)
	canCreate := RequirePermission(deps.Authorizer, entity.PermissionMovementsCreate)
	canAnnul := RequirePermission(deps.Authorizer, entity.PermissionMovementsAnnul)

	// Inventory: libro de movimientos y stock (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Logger)
	invGroup.Post("/movements", canCreate, inventoryHandler.RecordMovement)
	invGroup.Get("/movements", canRead, inventoryHandler.ListMovements)
	invGroup.Get("/movements/:id", canRead, inventoryHandler.GetMovement)
	invGroup.Get("/movements/:id/eligibility", canRead, inventoryHandler.GetEligibility)
	invGroup.Post("/movements/:id/annul", canAnnul, inventoryHandler.Annul)
	invGroup.Get("/stock", canRead, inventoryHandler.GetStock)
	invGroup.Get("/containers/:id/stock", canRead, inventoryHandler.ListContainerStock)
	invGroup.Get("/products/:id/stock", canRead, inventoryHandler.ListProductStock)
}
