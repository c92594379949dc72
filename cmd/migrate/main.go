// Command migrate applies, inspects or rolls back the Postgres schema.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"

	"github.com/99minutos/storefront/internal/infrastructure/db/postgres"
	"github.com/99minutos/storefront/pkg/logger"
)

type migrateConfig struct {
	DatabaseURL string `env:"DATABASE_URL, required"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (migrateConfig, error) {
	var cfg migrateConfig
	err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper})
	return cfg, err
}

func main() {
	command := pflag.String("command", "up", "migrate command (up|status|down)")
	timeout := pflag.Duration("timeout", time.Minute, "command timeout")
	target := pflag.Int64("target", 0, "target version for down command (optional)")
	pflag.Parse()

	cfg, err := loadConfig(context.Background(), envconfig.OsLookuper())
	if err != nil {
		l := logger.Init(logger.ForEnv("production", "info", "migrate"))
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.Init(logger.ForEnv(cfg.Env, cfg.LogLevel, "migrate"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := postgres.NewMigrator(pool, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to configure migration runner")
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Up(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		log.Error().Str("command", *command).Msg("unsupported command")
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Str("command", *command).Msg("migration command failed")
		os.Exit(1)
	}

	log.Info().Str("command", *command).Msg("migration command completed")
}
