package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/pressworks/internal/assist"
	"github.com/Simplici0/pressworks/internal/config"
	"github.com/Simplici0/pressworks/internal/db"
	"github.com/Simplici0/pressworks/internal/logging"
	"github.com/Simplici0/pressworks/internal/metrics"
	"github.com/Simplici0/pressworks/internal/migrations"
	"github.com/Simplici0/pressworks/internal/seed"
	"github.com/Simplici0/pressworks/internal/store"
)

var (
	cfg    config.Config
	logger *zap.Logger

	logLevel string
	samples  bool
)

var rootCmd = &cobra.Command{
	Use:   "pressworks",
	Short: "Job costing and profitability service for a print shop",
	Long: `pressworks tracks print job orders together with their estimated and
actual cost breakdowns, and reports profit, margin and budget variance.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		var err error
		logger, err = logging.New(cfg.LogLevel, cfg.IsDev())
		if err != nil {
			return err
		}
		for _, w := range cfg.Warnings() {
			logger.Warn(w)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, database *sql.DB) error {
			return migrate(ctx, database)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin user and, with --samples, a demo job",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, database *sql.DB) error {
			if err := migrate(ctx, database); err != nil {
				return err
			}
			return runSeed(ctx, database, samples)
		})
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Rewrite legacy cost breakdowns into the current format",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, database *sql.DB) error {
			n, err := store.New(database).NormalizeLegacy(ctx)
			if err != nil {
				return err
			}
			logger.Info("legacy breakdowns normalized", zap.Int("rewritten", n))
			fmt.Fprintf(cmd.OutOrStdout(), "rewrote %d breakdown(s)\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	seedCmd.Flags().BoolVar(&samples, "samples", false, "Also insert a sample job and expense")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(normalizeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	return withDatabase(cmd.Context(), func(ctx context.Context, database *sql.DB) error {
		if cfg.IsDev() {
			if err := migrate(ctx, database); err != nil {
				return err
			}
		}
		if err := runSeed(ctx, database, cfg.IsDev()); err != nil {
			return err
		}

		m := metrics.New()
		jobs := store.New(database)
		srv := &server{
			store:    jobs,
			auth:     newAuthService(jobs, cfg.SessionSecret, logger),
			drafter:  assist.NewDrafter(newGenerator(ctx), logger.Named("assist"), m),
			metrics:  m,
			log:      logger,
			currency: cfg.Currency,
			now:      time.Now,
		}

		httpServer := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server stopped: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
}

func withDatabase(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, database)
}

func migrate(ctx context.Context, database *sql.DB) error {
	applied, err := migrations.Up(ctx, database)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Int64s("versions", applied))
	}
	return nil
}

func runSeed(ctx context.Context, database *sql.DB, withSamples bool) error {
	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Samples:       withSamples,
	})
	if err != nil {
		return err
	}
	if stats.Inserts > 0 {
		logger.Info("seed applied", zap.Int("inserts", stats.Inserts))
	}
	return nil
}

// newGenerator returns nil when drafting is not configured.
func newGenerator(ctx context.Context) assist.Generator {
	gen, err := assist.NewGenAI(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	if errors.Is(err, assist.ErrUnavailable) {
		return nil
	}
	if err != nil {
		logger.Warn("drafting disabled", zap.Error(err))
		return nil
	}
	return gen
}
