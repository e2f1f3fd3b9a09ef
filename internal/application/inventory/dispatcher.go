package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// InvalidationDispatcher entrega los eventos de invalidación de forma asíncrona:
// cola acotada y un worker que publica en orden de llegada.
type InvalidationDispatcher struct {
	publisher InvalidationPublisher
	log       *logger.Logger
	timeout   time.Duration

	queue  chan invalidation.Event
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewInvalidationDispatcher crea el dispatcher con una cola de size eventos (mínimo 1).
func NewInvalidationDispatcher(publisher InvalidationPublisher, size int, log *logger.Logger) *InvalidationDispatcher {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvalidationDispatcher{
		publisher: publisher,
		log:       log.Named("invalidation"),
		timeout:   5 * time.Second,
		queue:     make(chan invalidation.Event, size),
	}
}

// Start lanza el worker. Termina cuando se llama Close y la cola queda vacía.
func (d *InvalidationDispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range d.queue {
			d.publish(ev)
		}
	}()
}

// Notify encola ev sin bloquear. Con la cola llena el evento se publica en una goroutine aparte.
func (d *InvalidationDispatcher) Notify(ev invalidation.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("mutation", string(ev.Mutation)).Msg("dispatcher cerrado: evento descartado")
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn().Str("mutation", string(ev.Mutation)).Msg("cola de invalidación llena")
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.publish(ev)
		}()
	}
}

// Close deja de aceptar eventos y espera a que se publiquen los pendientes.
func (d *InvalidationDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *InvalidationDispatcher) publish(ev invalidation.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.log.Error().Err(err).
			Str("mutation", string(ev.Mutation)).
			Strs("tags", ev.Tags()).
			Msg("no se pudo publicar la invalidación")
	}
}
