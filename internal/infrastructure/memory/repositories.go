package memory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// txStockRepo StockRepository atado a una transacción.
type txStockRepo struct{ tx *tx }

func (r *txStockRepo) Get(_ context.Context, productID, containerID string) (*entity.StockLevel, error) {
	k := entity.StockKey{ProductID: productID, ContainerID: containerID}
	if l, ok := r.tx.levels[k]; ok {
		cp := *l
		return &cp, nil
	}
	if l, ok := r.tx.s.level(k); ok {
		return l, nil
	}
	return &entity.StockLevel{ProductID: productID, ContainerID: containerID, Quantity: decimal.Zero}, nil
}

func (r *txStockRepo) GetForUpdate(ctx context.Context, productID, containerID string) (*entity.StockLevel, error) {
	if err := r.tx.acquire(ctx, stockLockKey(productID, containerID)); err != nil {
		return nil, err
	}
	return r.Get(ctx, productID, containerID)
}

func (r *txStockRepo) Save(_ context.Context, level *entity.StockLevel) error {
	if level == nil {
		return errors.New("nivel de stock nil")
	}
	cp := *level
	r.tx.levels[level.Key()] = &cp
	return nil
}

func (r *txStockRepo) ListByContainer(_ context.Context, containerID string) ([]*entity.StockLevel, error) {
	return r.tx.merged(func(k entity.StockKey) bool { return k.ContainerID == containerID }), nil
}

func (r *txStockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockLevel, error) {
	return r.tx.merged(func(k entity.StockKey) bool { return k.ProductID == productID }), nil
}

// merged niveles confirmados con las escrituras preparadas encima.
func (t *tx) merged(match func(entity.StockKey) bool) []*entity.StockLevel {
	out := t.s.levelsWhere(match)
	for k, l := range t.levels {
		if !match(k) {
			continue
		}
		cp := *l
		replaced := false
		for i, existing := range out {
			if existing.Key() == k {
				out[i] = &cp
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, &cp)
		}
	}
	return out
}

// txMovementRepo MovementRepository atado a una transacción.
type txMovementRepo struct{ tx *tx }

func (r *txMovementRepo) Create(_ context.Context, m *entity.MovementRecord) error {
	if m == nil || m.ID == "" {
		return errors.New("movimiento sin id")
	}
	if r.tx.movement(m.ID) != nil {
		return errors.New("id de movimiento duplicado " + m.ID)
	}
	cp := *m
	r.tx.created = append(r.tx.created, &cp)
	return nil
}

func (r *txMovementRepo) GetByID(_ context.Context, id string) (*entity.MovementRecord, error) {
	return r.tx.movement(id), nil
}

func (r *txMovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.MovementRecord, error) {
	if err := r.tx.acquire(ctx, movementLockKey(id)); err != nil {
		return nil, err
	}
	return r.tx.movement(id), nil
}

// MarkAnnulled solo copia el bloque de estado sobre el registro existente.
func (r *txMovementRepo) MarkAnnulled(_ context.Context, m *entity.MovementRecord) error {
	current := r.tx.movement(m.ID)
	if current == nil {
		return errors.New("movimiento inexistente " + m.ID)
	}
	current.Status = m.Status
	current.AnnulmentReason = m.AnnulmentReason
	current.AnnulledAt = m.AnnulledAt
	current.AnnulledBy = m.AnnulledBy
	r.tx.updated[m.ID] = current
	return nil
}

func (r *txMovementRepo) List(_ context.Context, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.MovementRecord, error) {
	return r.tx.s.list(f, after, limit), nil
}

// StockRepo StockRepository sobre el Store fuera de transacción.
type StockRepo struct{ s *Store }

func (r *StockRepo) Get(_ context.Context, productID, containerID string) (*entity.StockLevel, error) {
	if l, ok := r.s.level(entity.StockKey{ProductID: productID, ContainerID: containerID}); ok {
		return l, nil
	}
	return &entity.StockLevel{ProductID: productID, ContainerID: containerID, Quantity: decimal.Zero}, nil
}

// GetForUpdate fuera de transacción el bloqueo dura lo que la lectura.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, containerID string) (*entity.StockLevel, error) {
	var out *entity.StockLevel
	err := r.s.Run(ctx, func(ctx context.Context, _ repository.MovementRepository, st repository.StockRepository) error {
		l, err := st.GetForUpdate(ctx, productID, containerID)
		out = l
		return err
	})
	return out, err
}

func (r *StockRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	return r.s.Run(ctx, func(ctx context.Context, _ repository.MovementRepository, st repository.StockRepository) error {
		if _, err := st.GetForUpdate(ctx, level.ProductID, level.ContainerID); err != nil {
			return err
		}
		return st.Save(ctx, level)
	})
}

func (r *StockRepo) ListByContainer(_ context.Context, containerID string) ([]*entity.StockLevel, error) {
	return r.s.levelsWhere(func(k entity.StockKey) bool { return k.ContainerID == containerID }), nil
}

func (r *StockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockLevel, error) {
	return r.s.levelsWhere(func(k entity.StockKey) bool { return k.ProductID == productID }), nil
}

// MovementRepo MovementRepository sobre el Store fuera de transacción.
type MovementRepo struct{ s *Store }

func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	return r.s.Run(ctx, func(ctx context.Context, mv repository.MovementRepository, _ repository.StockRepository) error {
		return mv.Create(ctx, m)
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.MovementRecord, error) {
	return r.s.movement(id), nil
}

func (r *MovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.MovementRecord, error) {
	var out *entity.MovementRecord
	err := r.s.Run(ctx, func(ctx context.Context, mv repository.MovementRepository, _ repository.StockRepository) error {
		m, err := mv.GetForUpdate(ctx, id)
		out = m
		return err
	})
	return out, err
}

func (r *MovementRepo) MarkAnnulled(ctx context.Context, m *entity.MovementRecord) error {
	return r.s.Run(ctx, func(ctx context.Context, mv repository.MovementRepository, _ repository.StockRepository) error {
		if _, err := mv.GetForUpdate(ctx, m.ID); err != nil {
			return err
		}
		return mv.MarkAnnulled(ctx, m)
	})
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.MovementRecord, error) {
	return r.s.list(f, after, limit), nil
}
