package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// DefaultCapacities is the fleet used when the config file names none.
var DefaultCapacities = []int{10, 10, 20, 20, 20, 20, 20, 20, 20, 20}

// PlannerConfig is the planner run configuration read from a YAML file.
type PlannerConfig struct {
	Instance string         `yaml:"instance"`
	Source   string         `yaml:"source" validate:"required,oneof=csv postgres"`
	CSVDir   string         `yaml:"csv_dir" validate:"required_if=Source csv"`
	Fleet    FleetConfig    `yaml:"fleet"`
	Search   SearchConfig   `yaml:"search"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

type FleetConfig struct {
	Capacities []int `yaml:"capacities" validate:"required,min=1,dive,gt=0"`
}

type SearchConfig struct {
	MaxAttempts     int `yaml:"max_attempts" validate:"gte=0"`
	MaxPermutations int `yaml:"max_permutations" validate:"gte=0"`
	// Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type PostgresConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Default returns the configuration used when no file is given.
func Default() PlannerConfig {
	return PlannerConfig{
		Source: SourceCSV,
		CSVDir: "data",
		Fleet:  FleetConfig{Capacities: append([]int(nil), DefaultCapacities...)},
		Redis:  RedisConfig{TTL: 24 * time.Hour},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (PlannerConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("load config: parse %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *PlannerConfig) error {
	cfg.Postgres.DatabaseURL = Get("DATABASE_URL", cfg.Postgres.DatabaseURL)
	cfg.Redis.URL = Get("REDIS_URL", cfg.Redis.URL)

	if raw := Get("PLANNER_SEED", ""); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("PLANNER_SEED %q: %w", raw, err)
		}
		cfg.Search.Seed = seed
	}

	return nil
}

// Validate checks struct tags plus the cross-section source requirements.
func Validate(cfg PlannerConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.Source == SourcePostgres && strings.TrimSpace(cfg.Postgres.DatabaseURL) == "" {
		return errors.New("postgres.database_url (or DATABASE_URL) is required for the postgres source")
	}

	return nil
}
