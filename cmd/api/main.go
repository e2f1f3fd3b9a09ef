package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/insumos-api/docs"
	"github.com/jhoicas/insumos-api/internal/application/authz"
	"github.com/jhoicas/insumos-api/internal/application/inventory"
	"github.com/jhoicas/insumos-api/internal/domain/repository"
	"github.com/jhoicas/insumos-api/internal/infrastructure/memory"
	"github.com/jhoicas/insumos-api/internal/infrastructure/messaging"
	"github.com/jhoicas/insumos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/insumos-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/insumos-api/internal/interfaces/http"
	"github.com/jhoicas/insumos-api/pkg/config"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

// storage piezas de persistencia que dependen de STORAGE_DRIVER.
type storage struct {
	txRunner  inventory.TxRunner
	catalog   seedableCatalog
	movements repository.MovementRepository
	stock     repository.StockRepository
	audit     repository.AuditRepository
	close     func()
}

type seedableCatalog interface {
	repository.CatalogRepository
	seed.Writer
}

// @title           Insumos API
// @version         1.0
// @description     Libro de movimientos de inventario de insumos: entradas, salidas, ajustes y anulación dentro de 24 horas.
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Inventory.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	if cfg.Inventory.CatalogFile != "" {
		cat, err := seed.LoadFile(cfg.Inventory.CatalogFile, cfg.Inventory.CatalogLatin1)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Inventory.CatalogFile).Msg("leer catálogo")
		}
		if err := cat.Apply(ctx, st.catalog); err != nil {
			log.Fatal().Err(err).Msg("cargar catálogo")
		}
		log.Info().Int("records", cat.Len()).Msg("catálogo cargado")
	} else if cfg.Inventory.StorageDriver == "memory" {
		log.Warn().Msg("almacenamiento en memoria sin CATALOG_FILE: el catálogo está vacío")
	}

	// Invalidación: Kafka si hay brokers, si no solo log.
	var publisher inventory.InvalidationPublisher = messaging.NewLogPublisher(log)
	if cfg.Kafka.Enabled() {
		kp := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.InvalidationTopic)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor kafka")
			}
		}()
		publisher = kp
	}
	dispatcher := inventory.NewInvalidationDispatcher(publisher, cfg.Inventory.InvalidationQueue, log)
	dispatcher.Start()

	auditor := inventory.NewAuditor(st.audit, log)

	retry := inventory.DefaultRetryPolicy
	retry.Attempts = cfg.Inventory.LockRetries
	authorizer := authz.NewRoleAuthorizer(nil)
	ledger := inventory.NewLedgerUseCase(inventory.LedgerDeps{
		TxRunner:    st.txRunner,
		Catalog:     st.catalog,
		Movements:   st.movements,
		Stock:       st.stock,
		Authorizer:  authorizer,
		Audit:       auditor,
		Invalidator: dispatcher,
		Logger:      log,
		Retry:       &retry,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Insumos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Inventory.StorageDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:     ledger,
		Authorizer: authorizer,
		JWTSecret:  cfg.JWT.Secret,
		Logger:     log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Después del HTTP: no llegan mutaciones nuevas; se vacían auditoría e invalidaciones pendientes.
	auditor.Wait()
	dispatcher.Close()

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Inventory.StorageDriver == "memory" {
		store := memory.NewStore(memory.WithLockWait(cfg.DB.LockTimeout))
		return &storage{
			txRunner:  store,
			catalog:   memory.NewCatalog(),
			movements: store.MovementRepository(),
			stock:     store.StockRepository(),
			audit:     memory.NewAuditLog(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	audit, err := postgres.NewAuditRepository(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		txRunner: postgres.NewTxRunner(pool, postgres.TxOptions{
			LockTimeout:      cfg.DB.LockTimeout,
			StatementTimeout: cfg.DB.StatementTimeout,
		}, log),
		catalog:   postgres.NewCatalogRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		stock:     postgres.NewStockRepository(pool),
		audit:     audit,
		close:     pool.Close,
	}, nil
}
