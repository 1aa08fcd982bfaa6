// Package command defines the operations that run once per tenant schema
// and the conventions for invoking them.
package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
)

// DB is the tenant-scoped database handle handed to an operation. It is the
// connection (or transaction) whose search path the executor has already
// bound to the tenant's schema; *sql.Conn and *sql.Tx satisfy it.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Call carries everything an operation may touch during one per-schema run.
// Out and Err are already correlated with the executor and schema.
type Call struct {
	DB         DB
	SchemaName string
	Args       []string
	Kwargs     map[string]string
	Out        io.Writer
	Err        io.Writer
}

// Operation is one named unit of work, executed once per schema.
type Operation interface {
	Name() string
	Run(ctx context.Context, call Call) error
}

// ArgvRunner is implemented by operations that accept a raw argv token list
// and do their own argument handling.
type ArgvRunner interface {
	RunArgv(ctx context.Context, argv []string, call Call) error
}

// Convention selects how an invocation reaches its operation.
type Convention int

const (
	// ByName dispatches through the registry with keyword arguments.
	ByName Convention = iota
	// Argv forwards a flat token list to the operation's RunArgv.
	Argv
	// Direct runs the caller's pre-configured operation instance as-is.
	Direct
)

func (c Convention) String() string {
	switch c {
	case ByName:
		return "by-name"
	case Argv:
		return "argv"
	case Direct:
		return "direct"
	}
	return fmt.Sprintf("convention(%d)", int(c))
}

// Invocation is one operation plus its calling convention and arguments. It
// is built once and reused verbatim for every schema in a run.
type Invocation struct {
	// OperationName keys the registry. Required for ByName, and for any
	// convention once the invocation crosses into parallel workers.
	OperationName string

	// Op is a live operation instance for Argv and Direct. Parallel workers
	// never see it; they re-obtain the operation from the registry by name.
	Op Operation

	Convention Convention
	Args       []string
	Kwargs     map[string]string

	// PassSchemaName injects the schema name as the schema_name keyword
	// before dispatch.
	PassSchemaName bool
}

// SchemaKwarg is the keyword under which PassSchemaName injects the active
// schema name.
const SchemaKwarg = "schema_name"

// Invoke dispatches inv for the schema identified in call. Operation
// failures propagate unchanged; Invoke adds no retries.
func Invoke(ctx context.Context, reg *Registry, inv Invocation, call Call) error {
	kwargs := make(map[string]string, len(inv.Kwargs)+1)
	for k, v := range inv.Kwargs {
		kwargs[k] = v
	}
	if inv.PassSchemaName {
		kwargs[SchemaKwarg] = call.SchemaName
	}
	call.Args = inv.Args
	call.Kwargs = kwargs

	op := inv.Op
	if op == nil {
		if reg == nil {
			return fmt.Errorf("invoke %q: no operation instance and no registry", inv.OperationName)
		}
		var err error
		op, err = reg.New(inv.OperationName)
		if err != nil {
			return err
		}
	}

	switch inv.Convention {
	case ByName, Direct:
		return op.Run(ctx, call)
	case Argv:
		runner, ok := op.(ArgvRunner)
		if !ok {
			return fmt.Errorf("operation %q does not accept argv invocation", op.Name())
		}
		return runner.RunArgv(ctx, inv.Args, call)
	}
	return fmt.Errorf("invoke %q: unknown convention %v", op.Name(), inv.Convention)
}

// ErrUnknownOperation marks registry lookups for unregistered names.
var ErrUnknownOperation = errors.New("unknown operation")

// Registry maps operation names to factories. Parallel workers use it to
// re-obtain an operation by identity, since a caller's configured instance
// (custom streams, pre-bound state) cannot cross the worker boundary.
type Registry struct {
	factories map[string]func() Operation
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Operation)}
}

// Register adds a factory under the name its operations report. Registration
// happens during process setup, before any run starts.
func (r *Registry) Register(factory func() Operation) error {
	name := factory().Name()
	if name == "" {
		return errors.New("register: operation has no name")
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("register: operation %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// New builds a fresh, unconfigured instance of the named operation.
func (r *Registry) New(name string) (Operation, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return factory(), nil
}
