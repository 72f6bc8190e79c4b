package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"roster-dashboard-go/api"
	"roster-dashboard-go/config"
	"roster-dashboard-go/dashboard"
	"roster-dashboard-go/db"
	"roster-dashboard-go/handlers"
	"roster-dashboard-go/sheet"
)

const (
	shutdownTimeout = 5 * time.Second
	pruneInterval   = 10 * time.Minute
)

var (
	// Global flags
	configPath string
	verbose    bool
	backendURL string

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Student roster dashboard",
	Long: `roster serves a web dashboard for a student roster kept by a REST backend.
Records can be listed, searched, added, edited and deleted from the page, and
moved in and out of .xlsx workbooks from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendURL != "" {
			cfg.Backend.BaseURL = backendURL
		}
		logger, err = newLogger(cfg.Logging.Level, verbose)
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
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	RunE:  runServe,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <roll>",
	Short: "Look up one student by roll number",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Add every row of a workbook to the roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Write the roster to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add sample students when the roster is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		added := checkAndSeedData(cmd.Context(), newRosterClient(), logger)
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d sample students\n", added)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "roster.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (overrides config)")

	rootCmd.AddCommand(serveCmd, lookupCmd, importCmd, exportCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		level = "debug"
	}
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = atomic
	return zcfg.Build()
}

func newRosterClient() *api.RosterClient {
	return api.NewRosterClient(cfg.Backend.BaseURL, cfg.RequestTimeout(), logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	client := newRosterClient()
	d := dashboard.New(client, logger, dashboard.WithToastTTL(cfg.ToastTTL()))

	var store dashboard.Store = dashboard.NewMemoryStore(cfg.SessionTTL())
	var redisStore *db.RedisStore
	if cfg.Redis.Enabled {
		rdb, err := db.InitializeRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		redisStore = db.NewRedisStore(rdb, cfg.SessionTTL(), logger)
		store = redisStore
		logger.Info("Sessions stored in Redis", zap.String("addr", cfg.Redis.Addr))
	}

	h := handlers.NewDashboardHandler(d, store, client, cfg.Branches, cfg.SessionTTL(), logger)
	router, err := handlers.NewRouter(h)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if redisStore != nil {
		g.Go(func() error {
			pruneSessions(gctx, redisStore)
			return nil
		})
	}
	return g.Wait()
}

// pruneSessions drops expired session IDs from the Redis index until ctx ends
func pruneSessions(ctx context.Context, store *db.RedisStore) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PruneSessions(ctx)
			if err != nil {
				logger.Warn("Error pruning sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("Pruned sessions", zap.Int("count", n))
			}
		}
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	student := newRosterClient().SearchStudent(cmd.Context(), args[0])
	if student == nil {
		return fmt.Errorf("student %q not found", args[0])
	}
	out, err := json.MarshalIndent(student, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := sheet.Import(cmd.Context(), f, newRosterClient(), logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d, failed %d\n", report.Imported, report.Skipped, report.Failed)
	for _, e := range report.Errors {
		fmt.Fprintln(cmd.OutOrStdout(), "  "+e)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	students := newRosterClient().LoadStudents(cmd.Context())
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := sheet.Export(f, students); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d students to %s\n", len(students), args[0])
	return nil
}
