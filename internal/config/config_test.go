package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pgtenant-labs/pgtenant-go/internal/schema"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgtenant.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
tenants:
  www:
    domains: [example.com, www.example.com]
  blog:
clone_reference: sample
tenant_table: tenants
max_workers: 4
extra_search_paths: [extensions]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if got := cfg.Tenants["www"].Domains[0]; got != "example.com" {
		t.Fatalf("www domain=%q, want example.com", got)
	}
	if len(cfg.Tenants["blog"].Domains) != 0 {
		t.Fatalf("blog domains=%v, want none", cfg.Tenants["blog"].Domains)
	}
	if cfg.CloneReference != "sample" {
		t.Fatalf("clone_reference=%q, want sample", cfg.CloneReference)
	}
	if cfg.MaxWorkers != 4 {
		t.Fatalf("max_workers=%d, want 4", cfg.MaxWorkers)
	}
	if cfg.TenantTable != "tenants" {
		t.Fatalf("tenant_table=%q, want tenants", cfg.TenantTable)
	}
}

func TestLoadRejectsBadSchemaName(t *testing.T) {
	path := writeConfig(t, `
tenants:
  "bad name": {}
`)
	_, err := Load(path)
	if !errors.Is(err, schema.ErrInvalidName) {
		t.Fatalf("err=%v, want ErrInvalidName", err)
	}
}

func TestValidateCloneReferenceCollision(t *testing.T) {
	cfg := Config{
		Tenants:        map[string]Tenant{"sample": {}},
		CloneReference: "sample",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate err=nil, want collision error")
	}
}

func TestValidateNegativeWorkers(t *testing.T) {
	cfg := Config{MaxWorkers: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate err=nil, want max_workers error")
	}
}
