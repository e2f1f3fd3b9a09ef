package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

func TestRoleAuthorizer_Roles(t *testing.T) {
	a := authz.NewRoleAuthorizer(nil)

	cases := []struct {
		role string
		code string
		want bool
	}{
		{entity.RoleAdmin, entity.PermissionMovementsAnnul, true},
		{entity.RoleBodeguero, entity.PermissionMovementsCreate, true},
		{entity.RoleVendedor, entity.PermissionMovementsRead, true},
		{entity.RoleVendedor, entity.PermissionMovementsCreate, false},
		{"desconocido", entity.PermissionMovementsRead, false},
	}
	for _, tc := range cases {
		got := a.HasPermission(entity.Identity{UserID: "u", Role: tc.role}, tc.code)
		assert.Equal(t, tc.want, got, "%s/%s", tc.role, tc.code)
	}
}

func TestRoleAuthorizer_PermisoExplicito(t *testing.T) {
	a := authz.NewRoleAuthorizer(nil)
	id := entity.Identity{UserID: "u", Role: entity.RoleVendedor, Permissions: []string{entity.PermissionMovementsAnnul}}
	assert.True(t, a.HasPermission(id, entity.PermissionMovementsAnnul))
}

func TestRequire(t *testing.T) {
	a := authz.NewRoleAuthorizer(nil)

	_, err := authz.Require(context.Background(), a, entity.PermissionMovementsRead)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied, "sin identidad")

	ctx := authz.WithIdentity(context.Background(), entity.Identity{UserID: "u1", CompanyID: "c1", Role: entity.RoleVendedor})
	_, err = authz.Require(ctx, a, entity.PermissionMovementsCreate)
	var pde *domain.PermissionDeniedError
	require.ErrorAs(t, err, &pde)
	assert.Equal(t, entity.PermissionMovementsCreate, pde.Permission)

	id, err := authz.Require(ctx, a, entity.PermissionMovementsRead)
	require.NoError(t, err)
	assert.Equal(t, "c1", id.CompanyID)
}
