// Package config holds the file-based tenant topology: the static tenant
// map, the clone reference name, and executor tuning.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pgtenant-labs/pgtenant-go/internal/schema"
	"gopkg.in/yaml.v3"
)

// Tenant is one static tenant entry. Domains are ordered; the first one, if
// any, becomes the schema's routing domain. No domains is valid.
type Tenant struct {
	Domains []string `yaml:"domains"`
}

type Config struct {
	// Tenants maps schema names to static tenant entries.
	Tenants map[string]Tenant `yaml:"tenants"`

	// CloneReference is the reserved name of the template schema used to
	// seed new tenant schemas. Empty disables it.
	CloneReference string `yaml:"clone_reference"`

	// TenantTable names the table backing the dynamic tenant store. Empty
	// disables dynamic lookup (static-only deployment).
	TenantTable string `yaml:"tenant_table"`

	// MaxWorkers bounds the parallel executor. Zero means host parallelism.
	MaxWorkers int `yaml:"max_workers"`

	// ExtraSearchPaths are appended after the active schema on every
	// activation, e.g. a shared extensions schema.
	ExtraSearchPaths []string `yaml:"extra_search_paths"`
}

func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for name := range c.Tenants {
		if err := schema.ValidateName(name); err != nil {
			return fmt.Errorf("tenants: %w", err)
		}
	}
	if c.CloneReference != "" {
		if err := schema.ValidateName(c.CloneReference); err != nil {
			return fmt.Errorf("clone_reference: %w", err)
		}
		if _, ok := c.Tenants[c.CloneReference]; ok {
			return fmt.Errorf("clone_reference %q collides with a static tenant", c.CloneReference)
		}
	}
	for _, name := range c.ExtraSearchPaths {
		if err := schema.ValidateName(name); err != nil {
			return fmt.Errorf("extra_search_paths: %w", err)
		}
	}
	if c.MaxWorkers < 0 {
		return errors.New("max_workers must be >= 0")
	}
	return nil
}
