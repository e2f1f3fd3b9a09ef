package postgres

import (
	"context"
	"fmt"
)

// schema tablas del libro y del catálogo mínimo que consulta. Idempotente.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id           TEXT PRIMARY KEY,
		company_id   TEXT NOT NULL,
		category_id  TEXT NOT NULL DEFAULT '',
		sku          TEXT NOT NULL,
		name         TEXT NOT NULL,
		unit_measure TEXT NOT NULL DEFAULT 'UND',
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, sku)
	)`,
	`CREATE TABLE IF NOT EXISTS containers (
		id         TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS movement_reasons (
		id                 TEXT PRIMARY KEY,
		company_id         TEXT NOT NULL DEFAULT '',
		name               TEXT NOT NULL,
		kind               TEXT NOT NULL CHECK (kind IN ('ENTRADA', 'SALIDA', 'AJUSTE')),
		requires_container BOOLEAN NOT NULL DEFAULT TRUE,
		allows_negative    BOOLEAN NOT NULL DEFAULT FALSE,
		active             BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS stock_levels (
		product_id   TEXT NOT NULL,
		container_id TEXT NOT NULL DEFAULT '',
		quantity     NUMERIC NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (product_id, container_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_levels_container ON stock_levels (container_id)`,
	`CREATE TABLE IF NOT EXISTS inventory_movements (
		id               TEXT PRIMARY KEY,
		company_id       TEXT NOT NULL,
		product_id       TEXT NOT NULL,
		container_id     TEXT,
		reason_id        TEXT NOT NULL,
		kind             TEXT NOT NULL CHECK (kind IN ('ENTRADA', 'SALIDA', 'AJUSTE')),
		quantity         NUMERIC NOT NULL CHECK (quantity > 0),
		delta            NUMERIC NOT NULL,
		unit_price       NUMERIC(18, 2) NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
		stock_before     NUMERIC NOT NULL,
		stock_after      NUMERIC NOT NULL,
		document_number  TEXT,
		note             TEXT,
		occurred_at      TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by       TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'ANULADO')),
		annulment_reason TEXT,
		annulled_at      TIMESTAMPTZ,
		annulled_by      TEXT,
		CHECK (stock_after = stock_before + delta)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_company_occurred ON inventory_movements (company_id, occurred_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_pair ON inventory_movements (product_id, container_id, occurred_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_container ON inventory_movements (container_id, occurred_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id                     TEXT PRIMARY KEY,
		action                 TEXT NOT NULL,
		table_name             TEXT NOT NULL,
		record_id              TEXT NOT NULL,
		description            TEXT,
		description_compressed BYTEA,
		compression            TEXT NOT NULL DEFAULT 'none',
		actor                  TEXT NOT NULL DEFAULT '',
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_record ON audit_log (table_name, record_id, created_at DESC)`,
}

// EnsureSchema crea tablas e índices si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
