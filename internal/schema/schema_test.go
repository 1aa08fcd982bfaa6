package schema

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	valid := []string{"tenant1", "_shadow", "Tenant_2", "a", strings.Repeat("x", 63)}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Fatalf("ValidateName(%q) err=%v, want nil", name, err)
		}
	}

	invalid := []string{"", "1tenant", "pg_temp", "ten-ant", "ten ant", `ten"ant`, strings.Repeat("x", 64)}
	for _, name := range invalid {
		err := ValidateName(name)
		if !errors.Is(err, ErrInvalidName) {
			t.Fatalf("ValidateName(%q) err=%v, want ErrInvalidName", name, err)
		}
	}
}

type recordingConn struct {
	queries []string
	err     error
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.queries = append(c.queries, query)
	return nil, c.err
}

func TestActivateReplacesSearchPath(t *testing.T) {
	conn := &recordingConn{}

	if err := Activate(context.Background(), conn, NewStatic("alpha", "")); err != nil {
		t.Fatalf("Activate(alpha) err=%v", err)
	}
	if err := Activate(context.Background(), conn, NewStatic("beta", "")); err != nil {
		t.Fatalf("Activate(beta) err=%v", err)
	}

	want := []string{
		`SET search_path TO "alpha"`,
		`SET search_path TO "beta"`,
	}
	if len(conn.queries) != len(want) {
		t.Fatalf("queries=%d, want %d", len(conn.queries), len(want))
	}
	for i := range want {
		if conn.queries[i] != want[i] {
			t.Fatalf("query[%d]=%q, want %q", i, conn.queries[i], want[i])
		}
	}
}

func TestActivateExtraSearchPaths(t *testing.T) {
	conn := &recordingConn{}
	if err := Activate(context.Background(), conn, NewDynamic("alpha", "alpha.example.com", ""), "extensions", "public"); err != nil {
		t.Fatalf("Activate err=%v", err)
	}
	got := conn.queries[0]
	want := `SET search_path TO "alpha", "extensions", "public"`
	if got != want {
		t.Fatalf("query=%q, want %q", got, want)
	}
}

func TestActivateRejectsInvalidNames(t *testing.T) {
	conn := &recordingConn{}
	err := Activate(context.Background(), conn, NewStatic("bad name", ""))
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("err=%v, want ErrInvalidName", err)
	}
	if len(conn.queries) != 0 {
		t.Fatalf("queries=%v, want none before validation passes", conn.queries)
	}

	err = Activate(context.Background(), conn, NewStatic("alpha", ""), "bad path")
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("extra path err=%v, want ErrInvalidName", err)
	}
}

func TestActivateWrapsConnectionError(t *testing.T) {
	conn := &recordingConn{err: errors.New("connection reset")}
	err := Activate(context.Background(), conn, NewStatic("alpha", ""))
	if !errors.Is(err, ErrActivation) {
		t.Fatalf("err=%v, want ErrActivation", err)
	}
	if !strings.Contains(err.Error(), "alpha") {
		t.Fatalf("err=%v, want schema name in message", err)
	}
}

func TestDeactivateRestoresSessionDefault(t *testing.T) {
	conn := &recordingConn{}
	if err := Deactivate(context.Background(), conn); err != nil {
		t.Fatalf("Deactivate err=%v", err)
	}
	if got, want := conn.queries[0], `RESET search_path`; got != want {
		t.Fatalf("query=%q, want %q", got, want)
	}
}

func TestQuoteIdent(t *testing.T) {
	cases := map[string]string{
		"tenants":   `"tenants"`,
		`we"ird`:    `"we""ird"`,
		"MixedCase": `"MixedCase"`,
	}
	for in, want := range cases {
		if got := QuoteIdent(in); got != want {
			t.Fatalf("QuoteIdent(%q)=%q, want %q", in, got, want)
		}
	}
}
