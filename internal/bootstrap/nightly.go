package bootstrap

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/lpgledger/backend/internal/infrastructure/scheduler"
	"github.com/lpgledger/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// ArchiveStorage connects the report archive bucket, creating it when
// missing. It returns nil when archiving is disabled.
func ArchiveStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*storage.S3ObjectStorage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	store, err := storage.NewS3ObjectStorage(&cfg, storage.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	logger.Info("Report archive enabled", zap.String("bucket", store.Bucket()))
	return store, nil
}

// NightlyJob recalculates every tenant and then, when archive is set,
// stores each tenant's changes export for the previous day. The archive
// step runs even when the recalculation pass reports failures.
func NightlyJob(services *LedgerServices, archive bool, clock appledger.Clock) scheduler.Job {
	if clock == nil {
		clock = appledger.SystemClock{}
	}
	return func(ctx context.Context) error {
		_, recalcErr := services.Recalculation.RecalculateAllTenants(ctx, uuid.Nil)
		if !archive {
			return recalcErr
		}
		_, archiveErr := services.Reports.ArchiveDailyChanges(ctx, clock.Now().AddDate(0, 0, -1))
		return errors.Join(recalcErr, archiveErr)
	}
}
