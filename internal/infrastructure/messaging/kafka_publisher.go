// Package messaging publica los eventos de invalidación de vistas derivadas.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
)

// messageWriter lo cumple *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica invalidaciones en un tópico, con el producto como clave de partición
// para conservar el orden por producto.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher construye el publicador sobre los brokers y el tópico indicados.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: writer, timeout: 5 * time.Second}
}

// invalidationMessage cuerpo JSON publicado.
type invalidationMessage struct {
	Mutation   string    `json:"mutation"`
	Views      []string  `json:"views"`
	Tags       []string  `json:"tags"`
	CompanyID  string    `json:"company_id"`
	ProductID  string    `json:"product_id"`
	Container  string    `json:"container_id,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	MovementID string    `json:"movement_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newInvalidationMessage(ev invalidation.Event) invalidationMessage {
	views := make([]string, 0, len(ev.Views))
	for _, v := range ev.Views {
		views = append(views, string(v))
	}
	return invalidationMessage{
		Mutation:   string(ev.Mutation),
		Views:      views,
		Tags:       ev.Tags(),
		CompanyID:  ev.Scope.CompanyID,
		ProductID:  ev.Scope.ProductID,
		Container:  ev.Scope.ContainerID,
		CategoryID: ev.Scope.CategoryID,
		MovementID: ev.Scope.MovementID,
		OccurredAt: ev.OccurredAt,
	}
}

// Publish implementa inventory.InvalidationPublisher.
func (p *KafkaPublisher) Publish(ctx context.Context, ev invalidation.Event) error {
	body, err := json.Marshal(newInvalidationMessage(ev))
	if err != nil {
		return fmt.Errorf("marshal invalidation event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.Scope.ProductID),
		Value: body,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Mutation)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write invalidation event to kafka: %w", err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
