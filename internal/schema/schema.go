// Package schema models tenant schemas in a single multi-tenant Postgres
// database and binds them to live connections via the search path.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind records which resolution source produced a Schema.
type Kind string

const (
	KindStatic    Kind = "static"
	KindReference Kind = "reference"
	KindDynamic   Kind = "dynamic"
)

// Schema identifies one tenant namespace. Values are immutable; build a new
// one per resolution instead of mutating or caching.
type Schema struct {
	Name         string
	Domain       string // primary routing domain, may be empty
	FolderPrefix string // sub-path routing token, may be empty
	Kind         Kind
}

func NewStatic(name, domain string) Schema {
	return Schema{Name: name, Domain: domain, Kind: KindStatic}
}

// NewReference builds the clone-reference schema. It carries no routing
// metadata: the template namespace is never routed to.
func NewReference(name string) Schema {
	return Schema{Name: name, Kind: KindReference}
}

func NewDynamic(name, domain, folderPrefix string) Schema {
	return Schema{Name: name, Domain: domain, FolderPrefix: folderPrefix, Kind: KindDynamic}
}

// ErrInvalidName marks identifiers that are not legal schema names.
var ErrInvalidName = errors.New("invalid schema name")

var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateName enforces Postgres unquoted-identifier rules: at most 63
// bytes, letters/digits/underscores with a non-digit lead, and no reserved
// pg_ prefix. Resolution rejects bad names before any connection work.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > 63 {
		return fmt.Errorf("%w: %q exceeds 63 bytes", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, "pg_") {
		return fmt.Errorf("%w: %q uses the reserved pg_ prefix", ErrInvalidName, name)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
