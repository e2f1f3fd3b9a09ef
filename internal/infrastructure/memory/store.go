// Package memory implementa los puertos de persistencia del libro en memoria:
// un mapa de niveles por (producto, contenedor), el libro de movimientos y bloqueos por clave.
// Las escrituras de una transacción se preparan aparte y se aplican juntas en el commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/insumos-api/internal/domain"
	"github.com/jhoicas/insumos-api/internal/domain/entity"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

// DefaultLockWait espera máxima por un bloqueo antes de devolver domain.ErrConflict.
const DefaultLockWait = 2 * time.Second

var errLockTimeout = errors.New("tiempo de espera del bloqueo agotado")

// Store almacén en memoria. Es seguro para uso concurrente.
type Store struct {
	mu        sync.Mutex
	levels    map[entity.StockKey]*entity.StockLevel
	movements map[string]*entity.MovementRecord
	locks     map[string]chan struct{}
	lockWait  time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithLockWait fija la espera máxima por bloqueo.
func WithLockWait(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// NewStore crea un almacén vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		levels:    make(map[entity.StockKey]*entity.StockLevel),
		movements: make(map[string]*entity.MovementRecord),
		locks:     make(map[string]chan struct{}),
		lockWait:  DefaultLockWait,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run implementa inventory.TxRunner. Un error de fn o un contexto cancelado descartan lo preparado.
func (s *Store) Run(ctx context.Context, fn func(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(s)
	defer tx.release()

	if err := fn(ctx, &txMovementRepo{tx: tx}, &txStockRepo{tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

// StockRepository repositorio de stock fuera de transacción (cada escritura es su propia tx).
func (s *Store) StockRepository() repository.StockRepository { return &StockRepo{s: s} }

// MovementRepository repositorio de movimientos fuera de transacción.
func (s *Store) MovementRepository() repository.MovementRepository { return &MovementRepo{s: s} }

func (s *Store) lockChan(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

func (s *Store) level(k entity.StockKey) (*entity.StockLevel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[k]
	if !ok {
		return nil, false
	}
	cp := *l
	return &cp, true
}

func (s *Store) movement(id string) *entity.MovementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func (s *Store) levelsWhere(match func(entity.StockKey) bool) []*entity.StockLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockLevel, 0)
	for k, l := range s.levels {
		if match(k) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].ContainerID < out[j].ContainerID
	})
	return out
}

func (s *Store) list(f repository.MovementFilter, after *repository.MovementCursor, limit int) []*entity.MovementRecord {
	s.mu.Lock()
	out := make([]*entity.MovementRecord, 0)
	for _, m := range s.movements {
		if matches(m, f) && (after == nil || before(m, after)) {
			cp := *m
			out = append(out, &cp)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// before indica si m va después del cursor en el orden (OccurredAt DESC, ID DESC).
func before(m *entity.MovementRecord, c *repository.MovementCursor) bool {
	if m.OccurredAt.Equal(c.OccurredAt) {
		return m.ID < c.ID
	}
	return m.OccurredAt.Before(c.OccurredAt)
}

func matches(m *entity.MovementRecord, f repository.MovementFilter) bool {
	switch {
	case f.CompanyID != "" && m.CompanyID != f.CompanyID:
		return false
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.ContainerID != nil && m.ContainerKey() != *f.ContainerID:
		return false
	case f.Kind != "" && m.Kind != f.Kind:
		return false
	case f.Status != "" && m.Status != f.Status:
		return false
	case f.From != nil && m.OccurredAt.Before(*f.From):
		return false
	case f.To != nil && m.OccurredAt.After(*f.To):
		return false
	}
	return true
}

// tx escrituras preparadas y bloqueos tomados por una transacción.
type tx struct {
	s       *Store
	levels  map[entity.StockKey]*entity.StockLevel
	created []*entity.MovementRecord
	updated map[string]*entity.MovementRecord
	held    map[string]chan struct{}
}

func newTx(s *Store) *tx {
	return &tx{
		s:       s,
		levels:  make(map[entity.StockKey]*entity.StockLevel),
		updated: make(map[string]*entity.MovementRecord),
		held:    make(map[string]chan struct{}),
	}
}

// acquire toma el bloqueo de key; reentrante dentro de la misma transacción.
func (t *tx) acquire(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.s.lockChan(key)
	timer := time.NewTimer(t.s.lockWait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-timer.C:
		return &domain.ConflictError{Resource: key, Err: errLockTimeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *tx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, m := range t.created {
		if _, exists := t.s.movements[m.ID]; exists {
			return &domain.StorageError{Op: "insert movement", Err: errors.New("id duplicado " + m.ID)}
		}
	}
	for k, l := range t.levels {
		t.s.levels[k] = l
	}
	for _, m := range t.created {
		t.s.movements[m.ID] = m
	}
	for id, m := range t.updated {
		t.s.movements[id] = m
	}
	return nil
}

func (t *tx) movement(id string) *entity.MovementRecord {
	if m, ok := t.updated[id]; ok {
		cp := *m
		return &cp
	}
	for _, m := range t.created {
		if m.ID == id {
			cp := *m
			return &cp
		}
	}
	return t.s.movement(id)
}

func stockLockKey(productID, containerID string) string {
	return "stock:" + productID + "/" + containerID
}

func movementLockKey(id string) string {
	return "movement:" + id
}
