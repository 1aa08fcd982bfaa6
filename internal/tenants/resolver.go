// Package tenants resolves raw tenant identifiers to schemas, consulting
// static configuration, the clone reference name, and an optional dynamic
// store, in that order.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgtenant-labs/pgtenant-go/internal/config"
	"github.com/pgtenant-labs/pgtenant-go/internal/schema"
)

// ErrUnknownTenant marks identifiers no resolution source recognizes.
var ErrUnknownTenant = errors.New("unknown tenant")

// ErrNotFound is returned by Store implementations on a missed lookup.
var ErrNotFound = errors.New("tenant record not found")

// Record is one dynamically persisted tenant.
type Record struct {
	SchemaName   string
	Domain       string
	FolderPrefix string
}

// Store is the dynamic tenant lookup capability. It is optional: static-only
// deployments construct the Resolver with a nil Store.
type Store interface {
	FindByName(ctx context.Context, name string) (Record, error)
}

type Resolver struct {
	static         map[string]config.Tenant
	cloneReference string
	store          Store
}

func NewResolver(cfg config.Config, store Store) *Resolver {
	return &Resolver{
		static:         cfg.Tenants,
		cloneReference: cfg.CloneReference,
		store:          store,
	}
}

// Resolve maps an identifier to a schema. First match wins: static config,
// then the clone reference, then the dynamic store. Sources are never
// merged; a static entry shadows a dynamic record of the same name.
func (r *Resolver) Resolve(ctx context.Context, name string) (schema.Schema, error) {
	if err := schema.ValidateName(name); err != nil {
		return schema.Schema{}, err
	}

	if tenant, ok := r.static[name]; ok {
		domain := ""
		if len(tenant.Domains) > 0 {
			domain = tenant.Domains[0]
		}
		return schema.NewStatic(name, domain), nil
	}

	if r.cloneReference != "" && name == r.cloneReference {
		return schema.NewReference(name), nil
	}

	if r.store != nil {
		rec, err := r.store.FindByName(ctx, name)
		if err == nil {
			return schema.NewDynamic(rec.SchemaName, rec.Domain, rec.FolderPrefix), nil
		}
		if !errors.Is(err, ErrNotFound) {
			return schema.Schema{}, fmt.Errorf("lookup tenant %q: %w", name, err)
		}
	}

	return schema.Schema{}, fmt.Errorf("%w: %q", ErrUnknownTenant, name)
}
