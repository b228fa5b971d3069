package main

import (
	"context"
	"flag"
	"log"
	"time"

	"visapath-backend/internal/shared/config"
	"visapath-backend/internal/shared/storage/db"
	"visapath-backend/internal/visatypes"
)

func main() {
	file := flag.String("file", "", "path to the visa catalog JSON file")
	flag.Parse()

	cfg := config.Load()
	path := *file
	if path == "" {
		path = cfg.CatalogFile
	}
	if path == "" {
		log.Fatal("catalog file is required (-file or CATALOG_FILE)")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, database); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	repo := &visatypes.PGRepo{DB: database}
	count, err := visatypes.SeedFromFile(ctx, repo, path)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d visa types from %s", count, path)
}
