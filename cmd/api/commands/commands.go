package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamaster/core/internal/adapters/repository"
	"github.com/teamaster/core/internal/adapters/storage"
	"github.com/teamaster/core/internal/application/services"
	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/infrastructure/database"
	"github.com/teamaster/core/internal/infrastructure/logger"
	"github.com/teamaster/core/internal/infrastructure/metrics"
	"github.com/teamaster/core/internal/infrastructure/server"
)

const shutdownTimeout = 10 * time.Second

// Options are shared by every command
type Options struct {
	ConfigFile string
}

// NewRootCommand builds the teamaster command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "teamaster",
		Short:         "TeaMaster tea record store",
		Long:          `TeaMaster stores tea records, unique by id and by name, and upserts them by name from the command line or over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml)")

	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewAddCommand(opts))
	rootCmd.AddCommand(NewGetCommand(opts))
	rootCmd.AddCommand(NewListCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))
	rootCmd.AddCommand(NewMigrateCommand(opts))
	rootCmd.AddCommand(NewTokenCommand(opts))
	rootCmd.AddCommand(NewVersionCommand(version))

	return rootCmd
}

// app is the wiring shared by commands that touch the tea collection
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	storage  *storage.InstrumentedStorage
	teas     *services.TeaService
	closeFns []func() error
}

// newApp loads config and opens the configured storage. CLI commands pass
// quiet so logs never mix with output written to stdout.
func newApp(ctx context.Context, opts *Options, quiet bool) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if quiet && cfg.Logger.Output == "stdout" {
		cfg.Logger.Output = "stderr"
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	m := metrics.New()

	backend, closeStorage, err := storage.Open(ctx, cfg, appLogger.WithComponent("storage"))
	if err != nil {
		_ = appLogger.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Store.Backend, err)
	}
	store := storage.Instrument(backend, m, appLogger.WithComponent("storage"))

	repo := repository.NewTeaRepository(store,
		repository.WithIDStrategy(cfg.Store.IDStrategy),
		repository.WithLockTimeout(cfg.Store.LockTimeout),
	)

	return &app{
		cfg:      cfg,
		logger:   appLogger,
		metrics:  m,
		storage:  store,
		teas:     services.NewTeaService(repo, appLogger.WithComponent("teas"), m),
		closeFns: []func() error{closeStorage, appLogger.Close},
	}, nil
}

func (a *app) Close() {
	for _, fn := range a.closeFns {
		_ = fn()
	}
}

// NewServeCommand creates the serve command
func NewServeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TeaMaster API server",
		Long:  "Start the TeaMaster API server with all configured routes and middleware",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, opts)
		},
	}
}

func runServer(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(a.cfg, server.Dependencies{
		Teas:    a.teas,
		Auth:    services.NewAuthService(a.cfg.JWT, a.logger.WithComponent("auth")),
		Storage: a.storage,
		Metrics: a.metrics,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	a.logger.Infow("Starting TeaMaster API server",
		"port", a.cfg.Server.Port,
		"environment", a.cfg.App.Environment,
		"backend", a.storage.Name(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Infow("Server stopped")
	return nil
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand(opts *Options) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the PostgreSQL schema used by the postgres backend (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), opts, func(db *database.DB) error {
				changed, err := db.MigrateUp()
				if err != nil {
					return err
				}
				printMigrationResult(cmd, "up", changed)
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), opts, func(db *database.DB) error {
				changed, err := db.MigrateDown()
				if err != nil {
					return err
				}
				printMigrationResult(cmd, "down", changed)
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), opts, func(db *database.DB) error {
				version, dirty, err := db.MigrationVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
				fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
				return nil
			})
		},
	})

	return migrateCmd
}

func withDatabase(ctx context.Context, opts *Options, fn func(db *database.DB) error) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

func printMigrationResult(cmd *cobra.Command, direction string, changed bool) {
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
}

// NewTokenCommand creates the token command
func NewTokenCommand(opts *Options) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for writes",
		Long:  "Mint a signed JWT accepted by POST /api/v1/teas when jwt.enabled is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt secret is not configured (set JWT_SECRET)")
			}

			auth := services.NewAuthService(cfg.JWT, logger.NewNop())
			token, err := auth.IssueToken(subject)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TeaMaster version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "TeaMaster %s\n", version)
		},
	}
}

// Execute runs the command tree and returns the process exit code
func Execute(version string) int {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
