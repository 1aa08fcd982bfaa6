// Package executor drives one operation across a list of tenant schemas,
// sequentially or in a bounded worker pool.
//
// Parallel mode cannot forward a caller's configured operation instance into
// workers: only the operation's name and declared arguments cross the pool
// boundary. Workers re-obtain the operation from the registry and write to
// process stdout/stderr, so custom streams and pre-bound state are a
// sequential-only feature.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pgtenant-labs/pgtenant-go/internal/command"
	"github.com/pgtenant-labs/pgtenant-go/internal/schema"
	"github.com/pgtenant-labs/pgtenant-go/internal/streams"
	"github.com/pgtenant-labs/pgtenant-go/internal/tenants"
)

// Mode selects the executor driving per-schema tasks.
type Mode int

const (
	Sequential Mode = iota
	Parallel
)

func (m Mode) String() string {
	if m == Parallel {
		return "parallel"
	}
	return "sequential"
}

// Progress is an optional best-effort reporting capability. Implementations
// must tolerate concurrent calls in parallel mode.
type Progress interface {
	Report(completed, total int, label string)
}

type nopProgress struct{}

func (nopProgress) Report(int, int, string) {}

// Request is one execution pass: a fixed schema list, an invocation, and a
// mode. Build it with NewRequest and do not mutate it during the run.
type Request struct {
	SchemaNames []string
	Invocation  command.Invocation
	Mode        Mode

	// MaxWorkers bounds the parallel pool. Zero means host parallelism.
	MaxWorkers int
}

// NewRequest freezes the schema list: duplicates are dropped, first
// occurrence order is kept.
func NewRequest(schemaNames []string, inv command.Invocation, mode Mode) Request {
	seen := make(map[string]struct{}, len(schemaNames))
	deduped := make([]string, 0, len(schemaNames))
	for _, name := range schemaNames {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		deduped = append(deduped, name)
	}
	return Request{SchemaNames: deduped, Invocation: inv, Mode: mode}
}

// Outcome reports what one run did. Completed holds successful schema names
// in completion order; parallel completion order is pool order, not input
// order.
type Outcome struct {
	RunID     string
	Completed []string
	Failures  map[string]error
}

// TaskError ties a failure to the schema whose task produced it.
type TaskError struct {
	SchemaName string
	Err        error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("schema %q: %v", e.SchemaName, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Executor owns the resources a run needs. Streams applies to sequential
// mode only; see the package comment.
type Executor struct {
	Logger   *slog.Logger
	DB       *sql.DB
	Resolver *tenants.Resolver
	Registry *command.Registry
	Progress Progress
	Streams  streams.Streams

	// ExtraSearchPaths are appended after the active schema on every
	// activation.
	ExtraSearchPaths []string
}

// Run executes the request and returns the outcome. Sequential mode stops at
// the first failing schema; parallel mode stops starting new tasks after the
// first failure and returns it once in-flight tasks drain. Either way the
// returned error is a *TaskError naming the schema.
func (e *Executor) Run(ctx context.Context, req Request) (Outcome, error) {
	outcome := Outcome{
		RunID:    uuid.NewString(),
		Failures: make(map[string]error),
	}
	logger := e.logger().With(
		"run_id", outcome.RunID,
		"mode", req.Mode.String(),
		"operation", operationLabel(req.Invocation),
	)
	logger.Info("run starting", "schemas", len(req.SchemaNames))

	var err error
	if req.Mode == Parallel {
		err = e.runParallel(ctx, req, &outcome)
	} else {
		err = e.runSequential(ctx, req, &outcome)
	}

	if err != nil {
		logger.Error("run failed", "completed", len(outcome.Completed), "error", err)
	} else {
		logger.Info("run complete", "completed", len(outcome.Completed))
	}
	return outcome, err
}

func (e *Executor) runSequential(ctx context.Context, req Request, outcome *Outcome) error {
	conn, err := e.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		// The pool must get the connection back without a tenant binding.
		_ = schema.Deactivate(ctx, conn)
		_ = conn.Close()
	}()

	label := operationLabel(req.Invocation)
	total := len(req.SchemaNames)
	progress := e.progress()
	callerStreams := e.streams()

	for i, name := range req.SchemaNames {
		if err := e.runOnSchema(ctx, conn, req.Invocation, Sequential.String(), name, callerStreams); err != nil {
			outcome.Failures[name] = err
			return &TaskError{SchemaName: name, Err: err}
		}
		outcome.Completed = append(outcome.Completed, name)
		progress.Report(i+1, total, label)
	}
	return nil
}

func (e *Executor) runParallel(ctx context.Context, req Request, outcome *Outcome) error {
	if e.Registry == nil {
		return errors.New("parallel mode requires an operation registry")
	}

	// Detach the invocation from the caller's instance; workers rebuild the
	// operation by name.
	inv := req.Invocation
	if inv.OperationName == "" && inv.Op != nil {
		inv.OperationName = inv.Op.Name()
	}
	inv.Op = nil
	if inv.OperationName == "" {
		return errors.New("parallel mode requires a named operation")
	}

	workers := req.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	label := operationLabel(inv)
	total := len(req.SchemaNames)
	progress := e.progress()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	finished := 0

	for _, name := range req.SchemaNames {
		name := name
		g.Go(func() error {
			// A sibling already failed: do not start, never interrupt.
			if gctx.Err() != nil {
				return gctx.Err()
			}

			err := e.runParallelTask(gctx, inv, name)

			mu.Lock()
			if err != nil {
				outcome.Failures[name] = err
			} else {
				outcome.Completed = append(outcome.Completed, name)
			}
			finished++
			progress.Report(finished, total, label)
			mu.Unlock()

			if err != nil {
				return &TaskError{SchemaName: name, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// runParallelTask gives the task exclusive connection state: a fresh
// connection, a transaction committed before the connection goes back, and a
// search path reset so nothing leaks to the pool.
func (e *Executor) runParallelTask(ctx context.Context, inv command.Invocation, name string) error {
	conn, err := e.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		_ = schema.Deactivate(ctx, conn)
		_ = conn.Close()
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	stdio := streams.Streams{Out: os.Stdout, Err: os.Stderr}
	if err := e.runOnSchema(ctx, tx, inv, Parallel.String(), name, stdio); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// runOnSchema is the per-tenant task: resolve, activate, invoke, all on the
// connection handed in. Every failure message goes through the correlated
// error stream before it propagates.
func (e *Executor) runOnSchema(ctx context.Context, db command.DB, inv command.Invocation, executorName, name string, callerStreams streams.Streams) error {
	correlated := streams.Correlate(callerStreams, executorName, name)

	sch, err := e.Resolver.Resolve(ctx, name)
	if err != nil {
		fmt.Fprintf(correlated.Err, "%v\n", err)
		return err
	}

	if err := schema.Activate(ctx, db, sch, e.ExtraSearchPaths...); err != nil {
		fmt.Fprintf(correlated.Err, "%v\n", err)
		return err
	}

	call := command.Call{
		DB:         db,
		SchemaName: sch.Name,
		Out:        correlated.Out,
		Err:        correlated.Err,
	}
	if err := command.Invoke(ctx, e.Registry, inv, call); err != nil {
		fmt.Fprintf(correlated.Err, "%v\n", err)
		return err
	}
	return nil
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *Executor) progress() Progress {
	if e.Progress != nil {
		return e.Progress
	}
	return nopProgress{}
}

func (e *Executor) streams() streams.Streams {
	s := e.Streams
	if s.Out == nil {
		s.Out = os.Stdout
	}
	if s.Err == nil {
		s.Err = os.Stderr
	}
	return s
}

func operationLabel(inv command.Invocation) string {
	if inv.OperationName != "" {
		return inv.OperationName
	}
	if inv.Op != nil {
		return inv.Op.Name()
	}
	return "operation"
}
