package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insumos-api/internal/application/dto"
	"github.com/jhoicas/insumos-api/internal/application/inventory"
	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del libro de movimientos y del stock (protegido).
type InventoryHandler struct {
	uc  *inventory.LedgerUseCase
	log *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase, log *logger.Logger) *InventoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InventoryHandler{uc: uc, log: log.Named("http")}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  El motivo fija el tipo (ENTRADA, SALIDA, AJUSTE). En AJUSTE quantity es el delta firmado.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "product_id, container_id, reason_id, quantity, unit_price"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.uc.RecordMovement(c.UserContext(), inventory.MovementInput{
		ProductID:      in.ProductID,
		ContainerID:    in.ContainerID,
		ReasonID:       in.ReasonID,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		DocumentNumber: in.DocumentNumber,
		Note:           in.Note,
		OccurredAt:     in.OccurredAt,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(rec))
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Description  Orden OccurredAt descendente. Paginación por cursor opaco (next_cursor).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        container_id  query  string  false  "Contenedor"
// @Param        kind          query  string  false  "ENTRADA | SALIDA | AJUSTE"
// @Param        status        query  string  false  "ACTIVE | ANULADO"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Tamaño de página (máx. 200)"
// @Param        cursor        query  string  false  "Cursor de la página anterior"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.ListMovementsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	filter, err := movementFilter(q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	page, err := h.uc.ListMovementsPage(c.UserContext(), filter, q.Cursor, q.Limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementPageResponse{
		Items:      dto.ToMovementResponses(page.Items),
		NextCursor: page.NextCursor,
	})
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	rec, err := h.uc.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToMovementResponse(rec))
}

// GetEligibility godoc
// @Summary      Ventana de anulación de un movimiento
// @Description  Informativo; la anulación vuelve a verificar con el reloj del servidor.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.EligibilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/eligibility [get]
func (h *InventoryHandler) GetEligibility(c *fiber.Ctx) error {
	id := c.Params("id")
	e, err := h.uc.CheckAnnulmentEligibility(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToEligibilityResponse(id, e))
}

// Annul godoc
// @Summary      Anular movimiento
// @Description  Revierte el efecto del movimiento sobre el stock vigente. Solo dentro de las 24h desde occurred_at.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del movimiento"
// @Param        body  body  dto.AnnulMovementRequest  true  "Motivo (5 a 500 caracteres)"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/annul [post]
func (h *InventoryHandler) Annul(c *fiber.Ctx) error {
	var in dto.AnnulMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.uc.Annul(c.UserContext(), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToMovementResponse(rec))
}

// GetStock godoc
// @Summary      Stock vigente de un producto en un contenedor
// @Description  Devuelve 0 si el par nunca tuvo movimientos. Sin container_id = stock sin contenedor.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        container_id  query  string  false  "Contenedor"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	containerID := c.Query("container_id")
	qty, err := h.uc.GetLevel(c.UserContext(), productID, containerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockLevelResponse{ProductID: productID, ContainerID: containerID, Quantity: qty})
}

// ListContainerStock godoc
// @Summary      Contenido de un contenedor
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del contenedor"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/containers/{id}/stock [get]
func (h *InventoryHandler) ListContainerStock(c *fiber.Ctx) error {
	levels, err := h.uc.ListLevelsByContainer(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(stockLevels(levels))
}

// ListProductStock godoc
// @Summary      Stock de un producto por contenedor
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) ListProductStock(c *fiber.Ctx) error {
	levels, err := h.uc.ListLevelsByProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(stockLevels(levels))
}

func stockLevels(levels []*entity.StockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.ToStockLevelResponse(l))
	}
	return out
}

// movementFilter traduce los query params al filtro del repositorio.
func movementFilter(q dto.ListMovementsQuery) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		ProductID: q.ProductID,
		Kind:      entity.MovementKind(q.Kind),
		Status:    entity.MovementStatus(q.Status),
	}
	if q.ContainerID != "" {
		f.ContainerID = &q.ContainerID
	}
	var err error
	if f.From, err = parseTime("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, domain.Invalid(field, "fecha inválida, se espera RFC3339")
	}
	return &t, nil
}
