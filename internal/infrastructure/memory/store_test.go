package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
	"github.com/jhoicas/insumos-api/internal/infrastructure/memory"
)

func TestStore_RollbackDescartaTodo(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(ctx context.Context, mv repository.MovementRepository, st repository.StockRepository) error {
		l, err := st.GetForUpdate(ctx, "p1", "c1")
		require.NoError(t, err)
		l.Quantity = decimal.NewFromInt(5)
		require.NoError(t, st.Save(ctx, l))
		require.NoError(t, mv.Create(ctx, &entity.MovementRecord{ID: "m1", ProductID: "p1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	l, err := s.StockRepository().Get(ctx, "p1", "c1")
	require.NoError(t, err)
	assert.True(t, l.Quantity.IsZero(), "el nivel no debe cambiar")
	m, err := s.MovementRepository().GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStore_CommitAplicaNivelYRegistro(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	err := s.Run(ctx, func(ctx context.Context, mv repository.MovementRepository, st repository.StockRepository) error {
		l, err := st.GetForUpdate(ctx, "p1", "")
		if err != nil {
			return err
		}
		l.Quantity = decimal.RequireFromString("2.5")
		if err := st.Save(ctx, l); err != nil {
			return err
		}
		return mv.Create(ctx, &entity.MovementRecord{ID: "m1", ProductID: "p1", Status: entity.MovementStatusActive})
	})
	require.NoError(t, err)

	l, _ := s.StockRepository().Get(ctx, "p1", "")
	assert.Equal(t, "2.5", l.Quantity.String())
	m, _ := s.MovementRepository().GetByID(ctx, "m1")
	require.NotNil(t, m)
	assert.Equal(t, entity.MovementStatusActive, m.Status)
}

func TestStore_BloqueoConEsperaAcotada(t *testing.T) {
	s := memory.NewStore(memory.WithLockWait(20 * time.Millisecond))
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx, func(ctx context.Context, _ repository.MovementRepository, st repository.StockRepository) error {
			_, err := st.GetForUpdate(ctx, "p1", "c1")
			close(held)
			<-done
			return err
		})
	}()
	<-held

	err := s.Run(ctx, func(ctx context.Context, _ repository.MovementRepository, st repository.StockRepository) error {
		_, err := st.GetForUpdate(ctx, "p1", "c1")
		return err
	})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// otro par no comparte el bloqueo
	err = s.Run(ctx, func(ctx context.Context, _ repository.MovementRepository, st repository.StockRepository) error {
		_, err := st.GetForUpdate(ctx, "p2", "c1")
		return err
	})
	assert.NoError(t, err)
	close(done)
}

func TestStore_ContextoCanceladoNoConfirma(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Run(ctx, func(ctx context.Context, _ repository.MovementRepository, st repository.StockRepository) error {
		l, _ := st.GetForUpdate(ctx, "p1", "c1")
		l.Quantity = decimal.NewFromInt(9)
		_ = st.Save(ctx, l)
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	l, _ := s.StockRepository().Get(context.Background(), "p1", "c1")
	assert.True(t, l.Quantity.IsZero())
}

func TestStore_ListOrdenYCursor(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		m := &entity.MovementRecord{
			ID:         fmt.Sprintf("m%d", i),
			CompanyID:  "co",
			ProductID:  "p1",
			Kind:       entity.MovementKindEntrada,
			Status:     entity.MovementStatusActive,
			OccurredAt: base.Add(time.Duration(i/2) * time.Hour), // pares con el mismo instante
		}
		require.NoError(t, s.MovementRepository().Create(ctx, m))
	}
	require.NoError(t, s.MovementRepository().Create(ctx, &entity.MovementRecord{ID: "otra", CompanyID: "co2", OccurredAt: base}))

	repo := s.MovementRepository()
	f := repository.MovementFilter{CompanyID: "co"}
	all, err := repo.List(ctx, f, nil, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m4", "m3", "m2", "m1", "m0"}, ids)

	first, _ := repo.List(ctx, f, nil, 2)
	last := first[len(first)-1]
	next, _ := repo.List(ctx, f, &repository.MovementCursor{OccurredAt: last.OccurredAt, ID: last.ID}, 2)
	require.Len(t, next, 2)
	assert.Equal(t, "m2", next[0].ID)
	assert.Equal(t, "m1", next[1].ID)

	from := base.Add(time.Hour)
	ranged, _ := repo.List(ctx, repository.MovementFilter{CompanyID: "co", From: &from, To: &from}, nil, 0)
	require.Len(t, ranged, 2, "el rango es inclusivo en ambos extremos")
}

func TestStore_MarkAnnulledSoloCambiaEstado(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	repo := s.MovementRepository()
	require.NoError(t, repo.Create(ctx, &entity.MovementRecord{
		ID: "m1", Quantity: decimal.NewFromInt(3), StockAfter: decimal.NewFromInt(3), Status: entity.MovementStatusActive,
	}))

	reason := "error de digitación"
	now := time.Now()
	by := "u1"
	require.NoError(t, repo.MarkAnnulled(ctx, &entity.MovementRecord{
		ID: "m1", Quantity: decimal.NewFromInt(99), Status: entity.MovementStatusAnulado,
		AnnulmentReason: &reason, AnnulledAt: &now, AnnulledBy: &by,
	}))

	m, _ := repo.GetByID(ctx, "m1")
	assert.Equal(t, entity.MovementStatusAnulado, m.Status)
	assert.Equal(t, "3", m.Quantity.String(), "las cantidades no se reescriben")
	assert.Equal(t, reason, *m.AnnulmentReason)
}
