package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() invalidation.Event {
	return invalidation.NewEvent(invalidation.MutationMovementAnnulled, invalidation.Scope{
		CompanyID: "co1", ProductID: "p1", ContainerID: "c1", CategoryID: "cat1", MovementID: "m1",
	}, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestKafkaPublisher_MensajeConClaveYCabecera(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, timeout: time.Second}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "p1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "movement.annulled", string(msg.Headers[0].Value))

	var body invalidationMessage
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "m1", body.MovementID)
	assert.Contains(t, body.Views, "movements.detail")
	assert.Contains(t, body.Tags, "stock.current:p1/c1")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_ErrorDeEscritura(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker caído")}, timeout: time.Second}
	err := p.Publish(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "broker caído")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(logger.FromWriter(&buf))
	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), "movement.annulled")
	assert.Contains(t, buf.String(), "container.contents:c1")
}
