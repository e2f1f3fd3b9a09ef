// Package authz expone la identidad de la petición y la verificación de permisos que consume el libro.
// No almacena permisos ni resuelve roles contra la DB: la fuente es el token.
package authz

import (
	"context"
	"slices"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

type identityKey struct{}

// WithIdentity devuelve un contexto que transporta la identidad autenticada.
func WithIdentity(ctx context.Context, id entity.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// CurrentIdentity devuelve la identidad del contexto; ok=false si la petición no está autenticada.
func CurrentIdentity(ctx context.Context) (entity.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(entity.Identity)
	if !ok || id.UserID == "" {
		return entity.Identity{}, false
	}
	return id, true
}

// Authorizer decide si una identidad tiene un permiso.
type Authorizer interface {
	HasPermission(identity entity.Identity, code string) bool
}

// RoleAuthorizer resuelve permisos por rol y añade los permisos explícitos del token.
type RoleAuthorizer struct {
	roles map[string][]string
}

// DefaultRolePermissions permisos del libro por rol.
var DefaultRolePermissions = map[string][]string{
	entity.RoleAdmin: {
		entity.PermissionMovementsCreate, entity.PermissionMovementsAnnul, entity.PermissionMovementsRead,
	},
	entity.RoleBodeguero: {
		entity.PermissionMovementsCreate, entity.PermissionMovementsAnnul, entity.PermissionMovementsRead,
	},
	entity.RoleVendedor: {
		entity.PermissionMovementsRead,
	},
}

// NewRoleAuthorizer construye el autorizador; roles nil usa DefaultRolePermissions.
func NewRoleAuthorizer(roles map[string][]string) *RoleAuthorizer {
	if roles == nil {
		roles = DefaultRolePermissions
	}
	return &RoleAuthorizer{roles: roles}
}

// HasPermission implementa Authorizer.
func (a *RoleAuthorizer) HasPermission(identity entity.Identity, code string) bool {
	if slices.Contains(identity.Permissions, code) {
		return true
	}
	return slices.Contains(a.roles[identity.Role], code)
}

// Require obtiene la identidad del contexto y verifica code.
// Sin identidad o sin permiso devuelve *domain.PermissionDeniedError.
func Require(ctx context.Context, a Authorizer, code string) (entity.Identity, error) {
	id, ok := CurrentIdentity(ctx)
	if !ok || !a.HasPermission(id, code) {
		return entity.Identity{}, &domain.PermissionDeniedError{Permission: code}
	}
	return id, nil
}
