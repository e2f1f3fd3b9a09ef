package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/insumos-api/internal/application/inventory"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

var tracer = otel.Tracer("insumos/postgres")

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxOptions límites de espera aplicados con SET LOCAL al inicio de cada transacción.
type TxOptions struct {
	LockTimeout      time.Duration // espera máxima por un bloqueo de fila; al vencer → 55P03
	StatementTimeout time.Duration
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL READ COMMITTED.
type TxRunner struct {
	pool *pgxpool.Pool
	opts TxOptions
	log  *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts TxOptions, log *logger.Logger) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &TxRunner{pool: pool, opts: opts, log: log.Named("tx")}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.isolation", string(pgx.ReadCommitted))))
	defer span.End()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return spanErr(span, mapError("begin transaction", err))
	}
	if err := r.setLimits(ctx, tx); err != nil {
		_ = tx.Rollback(context.Background())
		return spanErr(span, err)
	}

	if err := fn(ctx, NewMovementRepository(tx), NewStockRepository(tx)); err != nil {
		// contexto de fondo: el rollback debe completarse aunque ctx esté cancelado
		if rbErr := tx.Rollback(context.Background()); rbErr != nil {
			r.log.Error().Err(rbErr).AnErr("original_error", err).Msg("rollback falló")
		}
		return spanErr(span, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return spanErr(span, mapError("commit transaction", err))
	}
	return nil
}

func (r *TxRunner) setLimits(ctx context.Context, tx pgx.Tx) error {
	if r.opts.LockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.opts.LockTimeout.Milliseconds())); err != nil {
			return mapError("set lock_timeout", err)
		}
	}
	if r.opts.StatementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.opts.StatementTimeout.Milliseconds())); err != nil {
			return mapError("set statement_timeout", err)
		}
	}
	return nil
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
