package services

import (
	"context"
	"testing"

	"github.com/estrategista/sistema-saques/src/config"
)

func TestConfigDefaults(t *testing.T) {
	svc := NewConfigService(newTestDB(t))
	ctx := context.Background()

	cfg, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if cfg["taxaSaque"] != config.DefaultTaxaSaque {
		t.Errorf("taxaSaque default: got %v want %v", cfg["taxaSaque"], config.DefaultTaxaSaque)
	}
	if cfg["apiUrl"] != config.DefaultAPIURL {
		t.Errorf("apiUrl default: got %v want %v", cfg["apiUrl"], config.DefaultAPIURL)
	}
}

func TestConfigSaveAndReload(t *testing.T) {
	svc := NewConfigService(newTestDB(t))
	ctx := context.Background()

	err := svc.SaveAll(ctx, map[string]any{
		"taxaSaque": 3.75,
		"apiUrl":    "https://example.com/cotacao",
		"tema":      "escuro",
	})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	cfg, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if cfg["taxaSaque"] != 3.75 {
		t.Errorf("taxaSaque: got %v (%T)", cfg["taxaSaque"], cfg["taxaSaque"])
	}
	if cfg["apiUrl"] != "https://example.com/cotacao" {
		t.Errorf("apiUrl: got %v", cfg["apiUrl"])
	}
	if cfg["tema"] != "escuro" {
		t.Errorf("tema: got %v", cfg["tema"])
	}
}

func TestConfigSaveOverwrites(t *testing.T) {
	svc := NewConfigService(newTestDB(t))
	ctx := context.Background()

	if err := svc.SaveAll(ctx, map[string]any{"taxaSaque": 3.75}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := svc.SaveAll(ctx, map[string]any{"taxaSaque": 4.25}); err != nil {
		t.Fatalf("SaveAll second: %v", err)
	}

	taxa, err := svc.TaxaSaque(ctx)
	if err != nil {
		t.Fatalf("TaxaSaque: %v", err)
	}
	if taxa != 4.25 {
		t.Errorf("taxa: got %v want 4.25", taxa)
	}
}

func TestConfigTaxaSaqueDefault(t *testing.T) {
	svc := NewConfigService(newTestDB(t))

	taxa, err := svc.TaxaSaque(context.Background())
	if err != nil {
		t.Fatalf("TaxaSaque: %v", err)
	}
	if taxa != config.DefaultTaxaSaque {
		t.Errorf("taxa default: got %v want %v", taxa, config.DefaultTaxaSaque)
	}
}
