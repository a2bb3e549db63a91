// Command recalculate runs the receivable recalculation pass outside the HTTP
// server, for cron jobs and operator repairs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/bootstrap"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/cache"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/lpgledger/backend/internal/infrastructure/event"
	"github.com/lpgledger/backend/internal/infrastructure/logger"
	"github.com/lpgledger/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      opts.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(opts.logLevel))),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// The Redis locker keeps a cron run and an HTTP-triggered pass from
	// walking the same tenant at once.
	backends, err := cache.NewBackends(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize cache backends", zap.Error(err))
	}
	defer func() { _ = backends.Close() }()

	outbox := event.NewOutboxPublisher(event.NewLedgerEventSerializer())
	deps := bootstrap.LedgerDependencies(db.DB, outbox, backends, nil, cfg.Ledger, log)
	service := appledger.NewRecalculationService(deps)

	var stats appledger.RecalculationStats
	if opts.allTenants {
		stats, err = service.RecalculateAllTenants(ctx, opts.actorID)
	} else {
		stats, err = service.RecalculateTenant(ctx, opts.command())
	}

	log.Info("Recalculation finished",
		zap.Int("tenants", stats.Tenants),
		zap.Int("drivers", stats.Drivers),
		zap.Int("processed", stats.Processed),
		zap.Int("updated", stats.Updated),
		zap.Int("failed", stats.Failed),
	)

	var partial *ledger.PartialBatchError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		for _, f := range partial.Failures {
			log.Warn("Record not corrected",
				zap.Stringer("tenant_id", f.TenantID),
				zap.Stringer("driver_id", f.DriverID),
				zap.Stringer("record_id", f.RecordID),
				zap.String("error", f.Error),
			)
		}
		os.Exit(3)
	default:
		log.Error("Recalculation failed", zap.Error(err))
		os.Exit(1)
	}
}
