package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		code   string
		target error
	}{
		{"55P03", domain.ErrConflict},
		{"40001", domain.ErrConflict},
		{"40P01", domain.ErrConflict},
		{"23505", domain.ErrStorage},
		{"57014", domain.ErrStorage},
	}
	for _, tc := range cases {
		err := mapError("op", fmt.Errorf("wrap: %w", &pgconn.PgError{Code: tc.code}))
		assert.ErrorIs(t, err, tc.target, tc.code)
	}

	assert.Nil(t, mapError("op", nil))
	assert.ErrorIs(t, mapError("op", errors.New("conn reset")), domain.ErrStorage)

	nf := domain.NotFound("movimiento", "m1")
	assert.Same(t, nf, mapError("op", nf), "los errores de dominio pasan intactos")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(errors.New("23505 en el texto no cuenta")))
}

func TestMovementListQuery(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	empty := ""
	cursor := &repository.MovementCursor{OccurredAt: to, ID: "m9"}

	sql, args, err := movementListQuery(repository.MovementFilter{
		CompanyID:   "co1",
		ProductID:   "p1",
		ContainerID: &empty,
		Kind:        entity.MovementKindSalida,
		Status:      entity.MovementStatusActive,
		From:        &from,
		To:          &to,
	}, cursor, 25).ToSql()
	require.NoError(t, err)

	for _, frag := range []string{
		"FROM inventory_movements",
		"company_id = $1",
		"product_id = $2",
		"container_id IS NULL",
		"kind = $3",
		"status = $4",
		"occurred_at >= $5",
		"occurred_at <= $6",
		"(occurred_at, id) < ($7, $8)",
		"ORDER BY occurred_at DESC, id DESC",
		"LIMIT 25",
	} {
		assert.Contains(t, sql, frag)
	}
	assert.Equal(t, []any{"co1", "p1", "SALIDA", "ACTIVE", from, to, to, "m9"}, args)
}

func TestMovementListQuery_SinFiltros(t *testing.T) {
	sql, args, err := movementListQuery(repository.MovementFilter{}, nil, 0).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)
}

func TestAuditDescription_CompresionSobreUmbral(t *testing.T) {
	repo, err := NewAuditRepository(nil)
	require.NoError(t, err)

	short := "registro ENTRADA 3"
	desc, compressed, algo := repo.encodeDescription(short)
	assert.Equal(t, compressionNone, algo)
	assert.Nil(t, compressed)
	require.NotNil(t, desc)

	long := strings.Repeat("anulación por conteo físico; ", 400)
	desc, compressed, algo = repo.encodeDescription(long)
	assert.Equal(t, compressionZstd, algo)
	assert.Nil(t, desc)
	assert.Less(t, len(compressed), len(long))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	back, err := dec.DecodeAll(compressed, nil)
	require.NoError(t, err)
	assert.Equal(t, long, string(back))
}

func TestSchema_IndicesPorPar(t *testing.T) {
	ddl := strings.Join(schema, "\n")
	assert.Contains(t, ddl, "idx_movements_pair ON inventory_movements (product_id, container_id, occurred_at DESC, id DESC)")
	assert.Contains(t, ddl, "PRIMARY KEY (product_id, container_id)")
	assert.NotContains(t, ddl, "idx_movements_product ")
}
