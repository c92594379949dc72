package main

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadConfig(t *testing.T) {
	if _, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatal("expected DATABASE_URL to be required")
	}

	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL": "postgres://localhost/storefront",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
