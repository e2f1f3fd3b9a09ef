package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/insumos-api/internal/application/inventory"
	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []invalidation.Event
	block  chan struct{}
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev invalidation.Event) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestInvalidationDispatcher_EntregaTodoAlCerrar(t *testing.T) {
	pub := &fakePublisher{}
	d := inventory.NewInvalidationDispatcher(pub, 4, nil)
	d.Start()

	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		d.Notify(invalidation.NewEvent(invalidation.MutationMovementRecorded, invalidation.Scope{ProductID: "p1"}, at))
	}
	d.Close()
	assert.Equal(t, 10, pub.count())

	// después de cerrar no entrega ni entra en pánico
	d.Notify(invalidation.NewEvent(invalidation.MutationMovementAnnulled, invalidation.Scope{}, at))
	d.Close()
	assert.Equal(t, 10, pub.count())
}

func TestInvalidationDispatcher_NoBloqueaConColaLlena(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	d := inventory.NewInvalidationDispatcher(pub, 1, nil)
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Notify(invalidation.NewEvent(invalidation.MutationMovementRecorded, invalidation.Scope{}, time.Now()))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify bloqueó con el publicador detenido")
	}
	close(pub.block)
	d.Close()
	assert.Equal(t, 5, pub.count())
}

func TestInvalidationDispatcher_ErrorDePublicacionSeRegistra(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker caído")}
	d := inventory.NewInvalidationDispatcher(pub, 2, nil)
	d.Start()
	d.Notify(invalidation.NewEvent(invalidation.MutationMovementRecorded, invalidation.Scope{}, time.Now()))
	d.Close()
	assert.Equal(t, 1, pub.count())
}
