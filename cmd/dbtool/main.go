package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"school-bus-routing/internal/adapters/cache"
	"school-bus-routing/internal/adapters/csvdata"
	"school-bus-routing/internal/adapters/repositories"
	"school-bus-routing/internal/config"
	"school-bus-routing/internal/platform/db"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	csvDir := flag.String("csv-dir", config.Get("SEED_DIR", "data"), "folder holding <name>_nodes.csv and matrices")
	instance := flag.String("instance", "", "instance to seed (default: every instance in -csv-dir)")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(ctx, conn, *csvDir, *instance); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, csvDir, instance string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	log.Println("Schema ready.")

	src := csvdata.NewCSVInstanceRepository(csvDir)
	names := []string{instance}
	if instance == "" {
		var err error
		if names, err = src.ListInstances(ctx); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("init and seed: no instances found in %q", csvDir)
	}

	// Seeded instances replace old ones; drop their cached matrices too.
	var rc *cache.RedisMatrixCache
	if url := config.Get("REDIS_URL", ""); url != "" {
		var err error
		if rc, err = cache.NewRedisMatrixCache(url, 0); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
		defer rc.Close()
	}

	log.Println("Seeding database...")
	for _, name := range names {
		in, err := src.LoadInstance(ctx, name)
		if err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
		if err := repositories.SeedInstance(ctx, conn, in); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
		if rc != nil {
			if err := rc.Invalidate(ctx, name); err != nil {
				log.Printf("matrix cache invalidate failed instance=%s: %v", name, err)
			}
		}
		log.Printf("seeded instance=%s nodes=%d", name, in.Nodes.Len())
	}
	log.Println("Seeding complete.")

	return nil
}
