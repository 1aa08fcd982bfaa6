package command

import (
	"context"
	"errors"
	"fmt"
)

// ExecSQL runs each positional argument as one SQL statement against the
// active schema. It is the built-in workhorse for ad-hoc migrations and
// backfills driven from the CLI.
type ExecSQL struct{}

func (ExecSQL) Name() string { return "exec-sql" }

func (e ExecSQL) Run(ctx context.Context, call Call) error {
	if len(call.Args) == 0 {
		return errors.New("exec-sql: at least one statement required")
	}
	for _, stmt := range call.Args {
		res, err := call.DB.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("exec-sql: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			// Not every statement reports a row count.
			affected = 0
		}
		fmt.Fprintf(call.Out, "ok (%d rows)\n", affected)
	}
	return nil
}

func (e ExecSQL) RunArgv(ctx context.Context, argv []string, call Call) error {
	call.Args = argv
	return e.Run(ctx, call)
}
