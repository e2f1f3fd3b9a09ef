package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/insumos-api/pkg/jwt"
)

const (
	testSecret    = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "insumos-api-test"
)

func TestJWT_GenerateAndParse_ConRole(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, testCompanyID, "bodeguero", testIssuer, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	sub, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)

	assert.Equal(t, testUserID, sub.UserID)
	assert.Equal(t, testCompanyID, sub.CompanyID)
	assert.Equal(t, "bodeguero", sub.Role)
	assert.Empty(t, sub.Permissions)
}

func TestJWT_PermisosExplicitos(t *testing.T) {
	tok, err := pkgjwt.GenerateFor(testSecret, pkgjwt.Subject{
		UserID:      testUserID,
		CompanyID:   testCompanyID,
		Role:        "vendedor",
		Permissions: []string{"movements.annul"},
	}, testIssuer, 60)
	require.NoError(t, err)

	sub, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, []string{"movements.annul"}, sub.Permissions)
}

func TestJWT_TokenExpirado_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, testCompanyID, "admin", testIssuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestJWT_SecretIncorrecto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, testCompanyID, "admin", testIssuer, 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err, "secret incorrecto debe invalidar el token")
}

func TestJWT_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", testUserID, testCompanyID, "admin", testIssuer, 60)
	assert.Error(t, err)
}
