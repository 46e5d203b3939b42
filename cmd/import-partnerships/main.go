package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/partnermap/internal/config"
	"github.com/stemsi/partnermap/internal/database"
	"github.com/stemsi/partnermap/internal/logger"
	"github.com/stemsi/partnermap/internal/repository"
	"github.com/stemsi/partnermap/internal/source"
	"github.com/stemsi/partnermap/internal/store"
)

// import-partnerships copies a JSON or CSV partnership file (local, HTTP or
// S3) into the Postgres tables read by postgres:// data sources.
func main() {
	var from string
	var dryRun bool
	flag.StringVar(&from, "from", "", "Data file to import (defaults to DATA_SOURCE)")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the file without writing to the database")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	target := cfg.DatabaseURL
	if store.IsDatabaseSource(cfg.DataSource) {
		target = cfg.DataSource
	} else if from == "" {
		from = cfg.DataSource
	}
	if from == "" || store.IsDatabaseSource(from) {
		log.Fatal().Str("from", from).Msg("Import source must be a file; pass -from")
	}

	fetcher, err := source.NewFetcher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create data fetcher")
	}

	// Loading through the store applies the same validation the server does.
	st, err := store.NewLoader(fetcher, nil, log).Load(ctx, from)
	if err != nil {
		log.Fatal().Err(err).Str("from", from).Msg("Failed to load partnership data")
	}
	stats := st.Stats()
	fmt.Printf("Read %d rows: %d records kept, %d without coordinates, %d without partnerships\n",
		stats.Rows, stats.Loaded, stats.RejectedLocation, stats.RejectedEmpty)

	if dryRun {
		fmt.Println("Dry run, nothing written")
		return
	}

	pool, err := database.NewPostgresPool(ctx, target, cfg.MaxDBConns, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewPartnershipRepository(pool)
	if err := repo.ReplaceAll(ctx, st.All()); err != nil {
		log.Fatal().Err(err).Msg("Failed to import partnerships")
	}

	fmt.Printf("Imported %d institutions (dataset %s)\n", st.Len(), st.Version())
}
