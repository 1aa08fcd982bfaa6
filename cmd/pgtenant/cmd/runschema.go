package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgtenant-labs/pgtenant-go/internal/command"
	"github.com/pgtenant-labs/pgtenant-go/internal/config"
	"github.com/pgtenant-labs/pgtenant-go/internal/executor"
	"github.com/pgtenant-labs/pgtenant-go/internal/platform/env"
	"github.com/pgtenant-labs/pgtenant-go/internal/platform/postgres"
	"github.com/pgtenant-labs/pgtenant-go/internal/tenants"
)

var (
	schemasFlag    []string
	parallelFlag   bool
	workersFlag    int
	passSchemaFlag bool
	argvFlag       bool
	kwargsFlag     map[string]string
	quietFlag      bool
)

var runschemaCmd = &cobra.Command{
	Use:   "runschema <operation> [args...]",
	Short: "Run a registered operation once per tenant schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRunschema,
}

func init() {
	runschemaCmd.Flags().StringSliceVarP(&schemasFlag, "schemas", "s", nil, "tenant schema names to run against")
	runschemaCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", false, "run schemas in a bounded worker pool")
	runschemaCmd.Flags().IntVar(&workersFlag, "workers", 0, "parallel pool size (default: max_workers from config, then host parallelism)")
	runschemaCmd.Flags().BoolVar(&passSchemaFlag, "pass-schema", false, "inject the schema name as the schema_name keyword")
	runschemaCmd.Flags().BoolVar(&argvFlag, "argv", false, "forward args as a raw argv token list")
	runschemaCmd.Flags().StringToStringVarP(&kwargsFlag, "kwarg", "k", nil, "keyword argument for the operation (repeatable)")
	runschemaCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress the progress indicator")
	_ = runschemaCmd.MarkFlagRequired("schemas")
	rootCmd.AddCommand(runschemaCmd)
}

func runRunschema(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return err
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	defer func() { _ = db.Close() }()

	var store tenants.Store
	if cfg.TenantTable != "" {
		pgStore, err := tenants.NewPGStore(db, cfg.TenantTable)
		if err != nil {
			return err
		}
		store = pgStore
	}

	mode := executor.Sequential
	if parallelFlag {
		mode = executor.Parallel
	}

	workers := workersFlag
	if workers == 0 {
		workers, err = env.Int("PGTENANT_MAX_WORKERS", cfg.MaxWorkers)
		if err != nil {
			return err
		}
	}

	var progress executor.Progress
	if !quietFlag {
		progress = progressPrinter{dst: cmd.ErrOrStderr()}
	}

	ex := &executor.Executor{
		Logger:           logger,
		DB:               db,
		Resolver:         tenants.NewResolver(cfg, store),
		Registry:         registry,
		Progress:         progress,
		ExtraSearchPaths: cfg.ExtraSearchPaths,
	}

	convention := command.ByName
	if argvFlag {
		convention = command.Argv
	}
	inv := command.Invocation{
		OperationName:  args[0],
		Convention:     convention,
		Args:           args[1:],
		Kwargs:         kwargsFlag,
		PassSchemaName: passSchemaFlag,
	}

	req := executor.NewRequest(schemasFlag, inv, mode)
	req.MaxWorkers = workers

	outcome, err := ex.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "completed %d schema(s)\n", len(outcome.Completed))
	return nil
}

// progressPrinter is the CLI's best-effort progress capability.
type progressPrinter struct {
	dst io.Writer
}

func (p progressPrinter) Report(completed, total int, label string) {
	fmt.Fprintf(p.dst, "\r%s: %d/%d", label, completed, total)
	if completed == total {
		fmt.Fprintln(p.dst)
	}
}
