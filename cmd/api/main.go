// The api binary runs the produce costing HTTP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenledger/produce-costing-backend/internal/api"
	"github.com/greenledger/produce-costing-backend/internal/application/service"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/domain/pnl"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/config"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/logging"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

func main() {
	configFile := flag.String("config", "", "Configuration file path")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := costing.NewEngine(costing.UnitWeights(cfg.Costing.UnitWeights))
	costingService := service.NewCostingService(store, engine, logger)
	ingestService := service.NewIngestService(store, pnlTable(cfg.Costing.PnL), logger)

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, store, costingService, ingestService, logger)

	// Serve until interrupted, then drain in-flight requests.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Start(); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	<-done
}

// pnlTable converts the YAML classification config into the classifier's
// lookup table.
func pnlTable(cfg config.PnLConfig) pnl.Table {
	classes := make(map[string]pnl.Class, len(cfg.Classes))
	for name, class := range cfg.Classes {
		classes[name] = pnl.Class(class)
	}
	return pnl.Table{
		Classes:    classes,
		Excluded:   cfg.Excluded,
		Categories: cfg.Categories,
	}
}
