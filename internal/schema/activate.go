package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Conn is the slice of a database/sql connection that activation needs.
// *sql.Conn, *sql.Tx and *sql.DB all satisfy it; activation never opens a
// connection of its own.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ErrActivation marks connection-level failures while binding a schema.
var ErrActivation = errors.New("schema activation failed")

// Activate binds s as the active schema on conn: subsequent unqualified
// names on that connection resolve against s first, then any extra search
// paths. The previous search path is fully replaced, never appended to.
//
// SET accepts no bind parameters, so names are validated and quoted here.
func Activate(ctx context.Context, conn Conn, s Schema, extra ...string) error {
	parts := make([]string, 0, 1+len(extra))
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	parts = append(parts, QuoteIdent(s.Name))
	for _, name := range extra {
		if err := ValidateName(name); err != nil {
			return err
		}
		parts = append(parts, QuoteIdent(name))
	}

	if _, err := conn.ExecContext(ctx, "SET search_path TO "+strings.Join(parts, ", ")); err != nil {
		return fmt.Errorf("%w: schema %q: %w", ErrActivation, s.Name, err)
	}
	return nil
}

// Deactivate restores the connection's session-default search path. A
// connection must pass through here before going back to a shared pool so
// no tenant binding leaks into the next user.
func Deactivate(ctx context.Context, conn Conn) error {
	if _, err := conn.ExecContext(ctx, "RESET search_path"); err != nil {
		return fmt.Errorf("%w: %w", ErrActivation, err)
	}
	return nil
}

// QuoteIdent double-quotes a Postgres identifier, doubling any embedded
// quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
