package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/application/dto"
)

// RequirePermission devuelve un middleware Fiber que corta la petición si la identidad del token
// no tiene el permiso. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 MISSING_ROLE → token sin rol ni permisos explícitos.
//   - 403 FORBIDDEN    → el rol/permisos no incluyen el código pedido.
//
// Los casos de uso vuelven a verificar el permiso; esto solo evita trabajo inútil.
func RequirePermission(authorizer authz.Authorizer, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := authz.CurrentIdentity(c.UserContext())
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "identidad no encontrada en el token",
			})
		}
		if identity.Role == "" && len(identity.Permissions) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "MISSING_ROLE",
				Message: "el token no trae rol",
			})
		}
		if !authorizer.HasPermission(identity, permission) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "se requiere el permiso " + permission,
				Details: map[string]any{"permission": permission},
			})
		}
		return c.Next()
	}
}
