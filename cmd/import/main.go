// Command import loads a CSV or XLSX stock file into the inventory store
// without going through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"autoassist/internal/config"
	"autoassist/internal/database"
	"autoassist/internal/domain"
	"autoassist/internal/logging"
	"autoassist/internal/service"
	"autoassist/internal/spreadsheet"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config file")
	file := flag.String("file", "", "CSV or XLSX file to import")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*configPath, *file); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := logging.Component(baseLogger, "import")

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	records, err := spreadsheet.ReadRecords(data, cfg.Inventory.MaxImportRecords)
	if err != nil {
		return err
	}

	inv, err := database.NewInventoryDB(cfg.Database.InventoryPath, logger)
	if err != nil {
		return err
	}
	defer inv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewInventoryService(inv, nil, false, cfg.Inventory.MaxImportRecords, nil, logger)
	report, err := svc.BulkImport(ctx, domain.System, records)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.ErrorCount > 0 {
		logger.Warn().Int("errors", report.ErrorCount).Str("file", file).Msg("import finished with errors")
	}
	return nil
}
