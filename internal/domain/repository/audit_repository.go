package repository

import (
	"context"
	"time"
)

// AuditEvent evento estructurado por cada acción de creación, modificación, borrado o anulación.
type AuditEvent struct {
	Action      string // create | update | delete | annul
	Table       string
	RecordID    string
	Description string
	Actor       string
	Timestamp   time.Time
}

// AuditRepository destino de los eventos de auditoría.
type AuditRepository interface {
	Append(ctx context.Context, ev AuditEvent) error
}
