/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the billing service. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment + optional .env)
  2. Set up structured logging
  3. Initialize SQLite store
  4. Wire billing manager and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  Environment variables, with flags overriding:
  ADDR / -addr     Listen address (default: :8080)
  DB_PATH / -db    SQLite database path (default: ./data/billing.db)
                   Use ":memory:" for an in-memory database
  LOG_LEVEL        trace, debug, info, warn, error (default: info)
  LOG_FORMAT       json or console (default: console)

  -seed loads a small demo dataset (parties plus sample documents and
  payments) into an empty database.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/billing.db"

  # Run with in-memory database and demo data
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChristianRM-dev/Grow-sub001/api"
	"github.com/ChristianRM-dev/Grow-sub001/billing"
	"github.com/ChristianRM-dev/Grow-sub001/config"
	"github.com/ChristianRM-dev/Grow-sub001/ledger"
	"github.com/ChristianRM-dev/Grow-sub001/logger"
	"github.com/ChristianRM-dev/Grow-sub001/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Flags override environment
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	seed := flag.Bool("seed", false, "load demo data on startup")
	flag.Parse()

	log, err := logger.Setup(cfg.LoggerOptions())
	if err != nil {
		os.Stderr.WriteString("failed to set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Wire the domain and the API
	manager := billing.NewManager(store, logger.WithComponent("billing"))
	handler := api.NewHandler(manager, logger.WithComponent("api"))
	router := api.NewRouter(handler)

	if *seed {
		if err := loadDemoData(context.Background(), manager); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().Msg("demo data loaded")
	}

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// loadDemoData seeds a handful of parties, documents and payments so the
// frontend has something to show against an empty database.
func loadDemoData(ctx context.Context, m *billing.Manager) error {
	actor := ledger.Actor{Name: "seed", Role: "admin"}

	customerID, err := m.CreateParty(ctx, billing.PartyInput{Name: "Vivero San Rafael", Kind: billing.PartyCustomer})
	if err != nil {
		return err
	}
	supplierID, err := m.CreateParty(ctx, billing.PartyInput{Name: "Agroinsumos del Valle", Kind: billing.PartySupplier})
	if err != nil {
		return err
	}

	saleID, err := m.CreateDocument(ctx, actor, billing.DocumentInput{
		Type:    billing.TypeSalesNote,
		PartyID: customerID,
		Lines: []billing.LineInput{
			{Description: "Ficus benjamina 1.5m", Quantity: decimal.NewFromInt(10), UnitPrice: ledger.MustMoney("85.00")},
			{Description: "Potting soil 50L", Quantity: decimal.NewFromInt(4), UnitPrice: ledger.MustMoney("37.50")},
		},
	})
	if err != nil {
		return err
	}
	if _, err := m.CreatePayment(ctx, actor, saleID, billing.PaymentInput{
		Method: billing.MethodCash,
		Amount: ledger.MustMoney("400.00"),
	}); err != nil {
		return err
	}

	if _, err := m.CreateDocument(ctx, actor, billing.DocumentInput{
		Type:    billing.TypeSupplierPurchase,
		PartyID: supplierID,
		Lines: []billing.LineInput{
			{Description: "Fertilizer pallet", Quantity: decimal.NewFromInt(1), UnitPrice: ledger.MustMoney("2600.00")},
		},
	}); err != nil {
		return err
	}

	_, err = m.CreateDocument(ctx, actor, billing.DocumentInput{
		Type:    billing.TypeQuotation,
		PartyID: customerID,
		Lines: []billing.LineInput{
			{Description: "Landscaping project, phase 1", Quantity: decimal.NewFromInt(1), UnitPrice: ledger.MustMoney("15000.00")},
		},
	})
	return err
}
