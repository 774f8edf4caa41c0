package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gratten/runlog/internal/config"
	"github.com/gratten/runlog/internal/db"
	"github.com/gratten/runlog/internal/handlers"
	"github.com/gratten/runlog/internal/mock"
	"github.com/gratten/runlog/internal/stats"
	"github.com/gratten/runlog/internal/store"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "runlog",
	Short: "Personal running log with mileage stats",
	Long: `runlog records runs and reports weekly, surface and run-type mileage.

Run without a subcommand to start the web dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and JSON API",
	RunE:  serve,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the log with four weeks of generated demo runs",
	RunE:  seed,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "runlog.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, seedCmd, statsCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

// openStore opens the configured backend and loads the run log from it.
func openStore(ctx context.Context) (*store.Store, db.KV, error) {
	kv, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	s := store.New(ctx, kv, store.WithKey(cfg.Storage.Key), store.WithLogger(logger))
	return s, kv, nil
}

func statsOptions() stats.Options {
	return stats.Options{Weeks: cfg.TrendWeeks, RecentLimit: cfg.RecentLimit}
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	gen := mock.New(nil)
	if cfg.SeedOnEmpty && len(s.Snapshot()) == 0 {
		runs, err := s.Replace(ctx, gen.Generate(time.Now()))
		if err != nil {
			logger.Warn("failed to seed empty log", zap.Error(err))
		} else {
			logger.Info("seeded empty log with demo runs", zap.Int("runs", len(runs)))
		}
	}

	h := handlers.NewHandler(s, gen,
		handlers.WithLogger(logger),
		handlers.WithStatsOptions(statsOptions()),
		handlers.WithLongRunMiles(cfg.LongRunMiles),
	)
	srv := &http.Server{Addr: cfg.Addr, Handler: h.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.String("backend", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func seed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	runs, err := s.Replace(ctx, mock.New(nil).Generate(time.Now()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d demo runs\n", len(runs))
	return nil
}
