package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/jhoicas/insumos-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// Compresión de descripciones en audit_log.
const (
	compressionNone = "none"
	compressionZstd = "zstd"

	// descripciones mayores se guardan comprimidas
	auditCompressThreshold = 4 * 1024
)

// AuditRepo escribe eventos en audit_log.
type AuditRepo struct {
	q       Querier
	encoder *zstd.Encoder
}

// NewAuditRepository construye el adaptador con su codificador zstd.
func NewAuditRepository(q Querier) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &AuditRepo{q: q, encoder: encoder}, nil
}

// Append inserta el evento.
func (r *AuditRepo) Append(ctx context.Context, ev repository.AuditEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	desc, compressed, algo := r.encodeDescription(ev.Description)
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_log (id, action, table_name, record_id, description, description_compressed, compression, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New().String(), ev.Action, ev.Table, ev.RecordID, desc, compressed, algo, ev.Actor, ev.Timestamp)
	return mapError("insert audit event", err)
}

func (r *AuditRepo) encodeDescription(desc string) (*string, []byte, string) {
	if len(desc) <= auditCompressThreshold {
		return &desc, nil, compressionNone
	}
	return nil, r.encoder.EncodeAll([]byte(desc), nil), compressionZstd
}
