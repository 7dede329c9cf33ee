// Command migrate installs or tears down the schema the core assumes
// exists (SPEC_FULL.md §6). It is the standalone form of the same
// bootstrap cmd/api runs when invoked with -migrate.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"walrus-messaging-core/internal/config"
	"walrus-messaging-core/internal/schema"
	"walrus-messaging-core/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	down := flag.Bool("down", false, "drop the schema instead of creating it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := store.Connect(store.ConnectionConfig{
		DSN:            cfg.Database.DSN(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if *down {
		if err := schema.DropAll(ctx, db.DB); err != nil {
			log.Fatalf("drop schema: %v", err)
		}
		slog.Info("schema dropped")
		return
	}

	if err := schema.CreateAll(ctx, db.DB); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	slog.Info("schema created")
}
