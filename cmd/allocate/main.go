// The allocate binary runs a one-off allocation from the command line and
// prints the resulting report as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/greenledger/produce-costing-backend/internal/application/service"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/config"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/logging"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		period     = flag.String("period", "", "Period to allocate, e.g. 2025-10")
		allTime    = flag.Bool("all-time", false, "Allocate over all periods merged")
		reportOnly = flag.Bool("report-only", false, "Rebuild the report from persisted allocations without re-running")
	)
	flag.Parse()

	if *period == "" && !*allTime {
		fmt.Fprintln(os.Stderr, "either -period or -all-time is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadOrEnvWithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "allocate")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := costing.NewEngine(costing.UnitWeights(cfg.Costing.UnitWeights))
	costingService := service.NewCostingService(store, engine, logger)

	scope := costing.Scope{Period: *period, AllTime: *allTime}

	var report *costing.Report
	if *reportOnly {
		report, err = costingService.Report(scope)
	} else {
		report, err = costingService.Allocate(scope)
	}
	if err != nil {
		logger.Error("allocation failed", "scope", scope.Key(), "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to encode report", "error", err)
		os.Exit(1)
	}
}
