package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-insights/config"
	"product-insights/models"
	"product-insights/services"
	"product-insights/snapshot"
	"product-insights/storage"
	"product-insights/utils"
	"product-insights/web"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Product Insights starting ===")
	logger.Info("Config | input: %s | top: %d | bins: %d | postgres: %v | http: %q | snapshots: %q",
		cfg.CSVInputPath, cfg.TopN, cfg.HistogramBins, cfg.PostgresEnabled, cfg.HTTPAddr, cfg.SnapshotDir)

	rawProducts, err := storage.NewCSVReader(cfg.CSVDelimiter).ReadFile(cfg.CSVInputPath)
	if err != nil {
		logger.Error("Failed to load dataset: %v", err)
		os.Exit(1)
	}
	logger.Info("Loaded %d raw products from %s", len(rawProducts), cfg.CSVInputPath)

	if cfg.PostgresEnabled {
		rawProducts = mirrorToPostgres(ctx, cfg, logger, rawProducts)
	}

	cleaner := services.NewCleaner(logger)
	products := cleaner.Enrich(rawProducts)

	if cfg.EnrichedCSVPath != "" {
		if err := exportEnriched(cfg.EnrichedCSVPath, products); err != nil {
			logger.Error("Enriched CSV export failed: %v", err)
		} else {
			logger.Info("Enriched dataset saved to %s", cfg.EnrichedCSVPath)
		}
	}

	insightSvc := services.NewInsightService(logger, cfg.TopN, cfg.HistogramBins)
	report, err := insightSvc.BuildFullRange(products)
	if err != nil {
		logger.Error("Failed to build report: %v", err)
		os.Exit(1)
	}
	insightSvc.Print(report)

	if cfg.HTTPAddr == "" && cfg.SnapshotDir == "" {
		return
	}

	server, err := web.NewServer(products, insightSvc, logger)
	if err != nil {
		logger.Error("Failed to create dashboard server: %v", err)
		os.Exit(1)
	}

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Failed to listen on %s: %v", addr, err)
		os.Exit(1)
	}

	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	served := make(chan error, 1)
	go func() { served <- server.Serve(serveCtx, ln) }()

	if cfg.SnapshotDir != "" {
		captureSnapshots(ctx, cfg, logger, ln.Addr())
		if cfg.HTTPAddr == "" {
			stopServe()
		}
	}

	if err := <-served; err != nil {
		logger.Error("Dashboard server failed: %v", err)
		os.Exit(1)
	}
}

// mirrorToPostgres replaces the products table with the loaded rows and
// reads them back. On any failure the CSV rows are used unchanged.
func mirrorToPostgres(ctx context.Context, cfg *config.Config, logger *utils.Logger, raw []*models.RawProduct) []*models.RawProduct {
	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), retry)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL, continuing with CSV data: %v", err)
		return raw
	}
	defer store.Close()

	if err := store.WriteRaw(ctx, raw); err != nil {
		logger.Error("PostgreSQL write failed, continuing with CSV data: %v", err)
		return raw
	}
	logger.Info("Raw products stored in PostgreSQL (table: products)")

	fetched, err := store.FetchAll(ctx)
	if err != nil {
		logger.Error("Failed to fetch products from PostgreSQL: %v", err)
		return raw
	}
	return fetched
}

func exportEnriched(path string, products []*models.Product) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteEnriched(products); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func captureSnapshots(ctx context.Context, cfg *config.Config, logger *utils.Logger, addr net.Addr) {
	capturer := snapshot.New(snapshot.Options{
		ChromeBin:   cfg.ChromeBin,
		Concurrency: cfg.SnapshotConcurrency,
		RateLimitMs: cfg.RateLimitMs,
		MaxRetries:  cfg.MaxRetries,
	}, logger)

	host := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.IP.IsUnspecified() {
		host = fmt.Sprintf("127.0.0.1:%d", tcp.Port)
	}
	baseURL := fmt.Sprintf("http://%s/", host)
	paths, err := capturer.CaptureAll(ctx, baseURL, web.Sections, cfg.SnapshotDir)
	if err != nil {
		logger.Error("Some snapshots failed: %v", err)
	}
	logger.Info("Saved %d of %d dashboard snapshots to %s", len(paths), len(web.Sections), cfg.SnapshotDir)
}
