// seed carga el catálogo de insumos (productos, contenedores y motivos) en PostgreSQL
// a partir de un CSV exportado por el sistema de compras.
//
// Uso: go run ./cmd/seed [-latin1] catalogo.csv
// Crea el esquema si no existe y hace upsert de cada registro; puede ejecutarse varias veces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/insumos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/insumos-api/internal/infrastructure/seed"
	"github.com/jhoicas/insumos-api/pkg/config"
	"github.com/jhoicas/insumos-api/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-latin1] catalogo.csv")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	cat, err := seed.LoadFile(path, *latin1)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer catálogo")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("crear esquema")
	}
	if err := cat.Apply(ctx, postgres.NewCatalogRepository(pool)); err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().
		Int("products", len(cat.Products)).
		Int("containers", len(cat.Containers)).
		Int("reasons", len(cat.Reasons)).
		Msg("catálogo cargado")
}
