package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgtenant-labs/pgtenant-go/internal/schema"
)

// PGStore reads dynamic tenant records from a table in the public schema.
// The query names the table fully qualified, so a lookup is correct no
// matter what search path a pooled connection last carried.
type PGStore struct {
	db    *sql.DB
	table string
}

func NewPGStore(db *sql.DB, table string) (*PGStore, error) {
	if table == "" {
		table = "tenants"
	}
	if err := schema.ValidateName(table); err != nil {
		return nil, fmt.Errorf("tenant table: %w", err)
	}
	return &PGStore{db: db, table: table}, nil
}

func (s *PGStore) FindByName(ctx context.Context, name string) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(
		ctx,
		`SELECT schema_name, COALESCE(domain, ''), COALESCE(folder_prefix, '')
		 FROM public.`+schema.QuoteIdent(s.table)+`
		 WHERE schema_name = $1`,
		name,
	).Scan(&rec.SchemaName, &rec.Domain, &rec.FolderPrefix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if isUndefinedTable(err) {
			return Record{}, fmt.Errorf("tenant table %q does not exist: %w", s.table, err)
		}
		return Record{}, fmt.Errorf("query tenant %q: %w", name, err)
	}
	return rec, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}
