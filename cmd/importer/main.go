package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Janier1992/Negocio-SaaS-sub001/config"
	"github.com/Janier1992/Negocio-SaaS-sub001/importer"
	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/reader"
	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type flags struct {
	configFile  string
	storeKind   string
	storeURL    string
	table       string
	apiKey      string
	businessID  string
	metricsAddr string
	maxRetries  int
	timeoutSec  int
	dryRun      bool
	verbose     bool
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "importer",
		Short: "Bulk spreadsheet import for the inventory backend",
		Long: `Importer reconciles CSV exports against the remote record store:
each row is matched by its natural key and either inserted as a new
record or applied to the existing one.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&f.storeKind, "store", "", "Store backend: rest, postgres, sqlite, or mongo")
	rootCmd.PersistentFlags().StringVar(&f.storeURL, "store-url", "", "Store URL, DSN, or path")
	rootCmd.PersistentFlags().StringVar(&f.table, "table", "", "Target table or collection")
	rootCmd.PersistentFlags().StringVar(&f.apiKey, "api-key", "", "API key for the REST backend")
	rootCmd.PersistentFlags().StringVar(&f.businessID, "business", "", "Owning business id attached to inserts")
	rootCmd.PersistentFlags().StringVar(&f.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	rootCmd.PersistentFlags().IntVar(&f.maxRetries, "max-retries", 2, "Maximum retry attempts per store call")
	rootCmd.PersistentFlags().IntVar(&f.timeoutSec, "timeout", 10, "Store request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&f.dryRun, "dry-run", false, "Plan the import without writing")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("importer %s (%s, %s)\n", version, commit, buildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "products <file.csv>",
		Short: "Import products, updating rows whose code already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), config.DefaultProductConfig(), &f, args[0])
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "suppliers <file.csv>",
		Short: "Import suppliers, skipping rows whose tax id already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), config.DefaultSupplierConfig(), &f, args[0])
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runImport(ctx context.Context, cfg *config.Config, f *flags, filename string) error {
	logger := newLogger(f.verbose)
	slog.SetDefault(logger)

	if err := buildConfig(cfg, f); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return err
	}

	rows, err := reader.ReadCSVFile(filename)
	if err != nil {
		logger.Error("reading import file", slog.Any("error", err))
		return err
	}

	recordStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("connecting to store", slog.Any("error", err))
		return err
	}
	defer closeStore()

	engine, err := importer.NewEngine(recordStore, importer.Options{
		Normalize: importer.NormalizeOptions{
			Columns:      cfg.Columns,
			RequirePrice: cfg.RequirePrice,
		},
		Policy:     cfg.Policy,
		BusinessID: cfg.BusinessID,
		Retry: importer.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
			BackoffMax: cfg.RetryBackoffMax,
		},
		DryRun: cfg.DryRun,
		Logger: logger,
	})
	if err != nil {
		logger.Error("initialising engine", slog.Any("error", err))
		return err
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, engine.Metrics, logger)
	defer stopMetricsServer(metricsServer, logger)

	logger.Info("starting import",
		slog.String("file", filename),
		slog.Int("rows", len(rows)),
		slog.String("store", string(cfg.Store.Kind)),
		slog.String("policy", string(cfg.Policy)),
		slog.Bool("dry_run", cfg.DryRun),
	)

	result, err := engine.Run(ctx, rows)
	if err != nil {
		logger.Error("import failed", slog.Any("error", err))
		return err
	}

	printSummary(result, cfg.DryRun)
	return nil
}

// buildConfig layers config file, environment, and flags (in that order of
// increasing precedence) onto the command defaults.
func buildConfig(cfg *config.Config, f *flags) error {
	if f.configFile != "" {
		if err := config.Load(f.configFile, cfg); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}

	if f.storeKind != "" {
		cfg.Store.Kind = config.StoreKind(f.storeKind)
	}
	if f.storeURL != "" {
		cfg.Store.URL = f.storeURL
	}
	if f.table != "" {
		cfg.Store.Table = f.table
	}
	if f.apiKey != "" {
		cfg.Store.APIKey = f.apiKey
	}
	if f.businessID != "" {
		cfg.BusinessID = f.businessID
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	cfg.MaxRetries = f.maxRetries
	cfg.Timeout = time.Duration(f.timeoutSec) * time.Second
	cfg.DryRun = f.dryRun
	cfg.Verbose = f.verbose

	return cfg.Validate()
}

func openStore(ctx context.Context, cfg *config.Config) (store.RecordStore, func(), error) {
	switch cfg.Store.Kind {
	case config.StoreREST:
		restStore, err := store.NewRESTStore(store.RESTConfig{
			BaseURL:        cfg.Store.URL,
			Table:          cfg.Store.Table,
			APIKey:         cfg.Store.APIKey,
			Columns:        cfg.Columns,
			IDColumn:       cfg.Store.IDColumn,
			BusinessColumn: cfg.Store.BusinessColumn,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return restStore, func() {}, nil

	case config.StorePostgres:
		pgStore, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:            cfg.Store.URL,
			Table:          cfg.Store.Table,
			Columns:        cfg.Columns,
			IDColumn:       cfg.Store.IDColumn,
			BusinessColumn: cfg.Store.BusinessColumn,
		})
		if err != nil {
			return nil, nil, err
		}
		return pgStore, pgStore.Close, nil

	case config.StoreSQLite:
		liteStore, err := store.NewSQLiteStore(cfg.Store.URL)
		if err != nil {
			return nil, nil, err
		}
		return liteStore, func() { liteStore.Close() }, nil

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Store.URL))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				slog.Error("mongo disconnect failed", slog.Any("error", err))
			}
		}
		return store.NewMongoStore(client.Database(cfg.Store.Database), cfg.Store.Table), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store kind: %s", cfg.Store.Kind)
	}
}

func startMetricsServer(addr string, metrics *importer.Metrics, logger *slog.Logger) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}

	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func stopMetricsServer(server *http.Server, logger *slog.Logger) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(result *models.RunResult, dryRun bool) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	if dryRun {
		fmt.Println("Import plan (dry run)")
		fmt.Printf("  Rows read:     %d\n", result.RowsRead)
		fmt.Printf("  Would insert:  %d\n", result.InsertsPlanned)
		fmt.Printf("  Would update:  %d\n", result.UpdatesPlanned)
		fmt.Printf("  Would skip:    %d\n", result.Skipped)
		fmt.Printf("  Rejected rows: %d\n", len(result.Rejected))
	} else {
		fmt.Println("Import complete")
		fmt.Printf("  Rows read:     %d\n", result.RowsRead)
		fmt.Printf("  Inserted:      %d / %d\n", result.Inserted, result.InsertsPlanned)
		fmt.Printf("  Updated:       %d / %d\n", result.Updated, result.UpdatesPlanned)
		fmt.Printf("  Skipped:       %d\n", result.Skipped)
		fmt.Printf("  Rejected rows: %d\n", len(result.Rejected))
		if result.InsertFailure != "" {
			fmt.Printf("  Insert error:  %s\n", result.InsertFailure)
		}
		if len(result.UpdateFailures) > 0 {
			fmt.Printf("  Update errors: %d\n", len(result.UpdateFailures))
			for _, failure := range result.UpdateFailures {
				fmt.Printf("    %s: %s\n", failure.Key, failure.Reason)
			}
		}
	}
	for _, rejection := range result.Rejected {
		fmt.Printf("    row %d [%s]: %s\n", rejection.Row, rejection.Field, rejection.Reason)
	}
	fmt.Printf("  Duration:      %v\n", result.Duration())
	fmt.Println(separator)
}

func newLogger(verbose bool) *slog.Logger {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
