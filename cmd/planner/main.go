package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"school-bus-routing/internal/adapters/cache"
	"school-bus-routing/internal/adapters/csvdata"
	"school-bus-routing/internal/adapters/repositories"
	"school-bus-routing/internal/config"
	"school-bus-routing/internal/metrics"
	"school-bus-routing/internal/platform/db"
	"school-bus-routing/internal/ports"
	"school-bus-routing/internal/report"
	"school-bus-routing/internal/services"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// main is the planner composition root.
// It wires the configured data source behind the InstanceRepository port and prints one plan.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	os.Exit(run())
}

// run returns the process exit code: 0 on success, 1 on error and 2 when
// some stop could not be placed on any route.
func run() int {
	configPath := flag.String("config", config.Get("PLANNER_CONFIG", ""), "path to the planner YAML config")
	instance := flag.String("instance", "", "instance name (overrides config)")
	source := flag.String("source", "", "data source: csv or postgres (overrides config)")
	asJSON := flag.Bool("json", false, "print the plan as JSON")
	metricsOut := flag.String("metrics-out", config.Get("METRICS_TEXTFILE", ""), "write Prometheus metrics to this textfile")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Print(err)
		return 1
	}
	if *instance != "" {
		cfg.Instance = *instance
	}
	if *source != "" {
		cfg.Source = *source
		if err := config.Validate(cfg); err != nil {
			log.Print(err)
			return 1
		}
	}
	if strings.TrimSpace(cfg.Instance) == "" {
		log.Print("instance is required (-instance or config instance)")
		return 1
	}

	metrics.Register()

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Print(err)
		return 1
	}
	defer closeRepo()

	seed := cfg.Search.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Printf("planning instance=%s source=%s buses=%d seed=%d", cfg.Instance, cfg.Source, len(cfg.Fleet.Capacities), seed)

	req := services.PlanRoutesRequest{
		Instance:        cfg.Instance,
		Capacities:      cfg.Fleet.Capacities,
		MaxAttempts:     cfg.Search.MaxAttempts,
		MaxPermutations: cfg.Search.MaxPermutations,
	}
	plan, err := services.PlanRoutes(ctx, req, repo, rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Print(err)
		return 1
	}

	if *asJSON {
		err = report.WriteJSON(os.Stdout, plan)
	} else {
		err = report.WriteText(os.Stdout, plan)
	}
	if err != nil {
		log.Print(err)
		return 1
	}

	if *metricsOut != "" {
		if err := metrics.WriteTextfile(*metricsOut); err != nil {
			log.Printf("metrics textfile write failed path=%s: %v", *metricsOut, err)
		}
	}

	return exitCode(plan)
}

func exitCode(plan *services.Plan) int {
	if len(plan.Unplaceable) > 0 {
		return 2
	}
	return 0
}

// openRepository returns the configured instance source and its cleanup.
func openRepository(ctx context.Context, cfg config.PlannerConfig) (ports.InstanceRepository, func(), error) {
	switch cfg.Source {
	case config.SourceCSV:
		return csvdata.NewCSVInstanceRepository(cfg.CSVDir), func() {}, nil

	case config.SourcePostgres:
		conn, err := db.Open(ctx, cfg.Postgres.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		var matrixCache ports.MatrixCache
		var rc *cache.RedisMatrixCache
		if cfg.Redis.URL != "" {
			rc, err = cache.NewRedisMatrixCache(cfg.Redis.URL, cfg.Redis.TTL)
			if err != nil {
				_ = conn.Close()
				return nil, nil, err
			}
			matrixCache = rc
		}

		return repositories.NewPostgresInstanceRepository(conn, matrixCache), closeAll(conn, rc), nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func closeAll(conn *sql.DB, rc *cache.RedisMatrixCache) func() {
	return func() {
		if rc != nil {
			_ = rc.Close()
		}
		_ = conn.Close()
	}
}
