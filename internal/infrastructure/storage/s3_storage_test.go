package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:    "lpg-archive-test",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		Endpoint:  "http://localhost:9000",
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	for name, tc := range map[string]struct {
		mutate func(*config.StorageConfig)
		want   string
	}{
		"missing bucket":     {func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		"missing access key": {func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		"missing secret key": {func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testStorageConfig()
			tc.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Endpoint = ""
		storage, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "lpg-archive-test", storage.Bucket())
		assert.Equal(t, 15*time.Minute, storage.presignExpiration)
	})

	t.Run("endpoint without scheme", func(t *testing.T) {
		for _, ssl := range []bool{false, true} {
			cfg := testStorageConfig()
			cfg.Endpoint = "minio.internal:9000"
			cfg.UseSSL = ssl
			_, err := NewS3ObjectStorage(cfg)
			require.NoError(t, err)
		}
	})
}

func TestS3ObjectStorageOptions(t *testing.T) {
	storage, err := NewS3ObjectStorage(testStorageConfig(),
		WithLogger(zaptest.NewLogger(t)),
		WithPresignExpiration(time.Hour),
	)
	require.NoError(t, err)
	assert.NotNil(t, storage.logger)
	assert.Equal(t, time.Hour, storage.presignExpiration)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	cfg := testStorageConfig()
	cfg.UsePathStyle = true
	storage, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = storage.GenerateDownloadURL(ctx, "", time.Minute)
	assert.ErrorIs(t, err, errEmptyKey)

	// Presigning is local; no server is contacted.
	before := time.Now()
	url, expiresAt, err := storage.GenerateDownloadURL(ctx, "receivables-changes/t1/2026-10-18.xlsx", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/lpg-archive-test/receivables-changes/t1/2026-10-18.xlsx?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.WithinDuration(t, before.Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestS3ObjectStorage_EmptyKeys(t *testing.T) {
	storage, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, storage.Upload(ctx, "", []byte("x"), "text/plain"), errEmptyKey)
	_, err = storage.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
	assert.ErrorIs(t, storage.DeleteObject(ctx, ""), errEmptyKey)
}

// TestS3ObjectStorage_RoundTrip needs a live S3-compatible server, e.g.
// LPG_TEST_S3_ENDPOINT=http://localhost:9000 with minioadmin credentials.
func TestS3ObjectStorage_RoundTrip(t *testing.T) {
	endpoint := os.Getenv("LPG_TEST_S3_ENDPOINT")
	if testing.Short() || endpoint == "" {
		t.Skip("set LPG_TEST_S3_ENDPOINT to run against a live S3-compatible server")
	}

	storage, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:       "lpg-archive-roundtrip",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, storage.EnsureBucket(ctx))
	require.NoError(t, storage.EnsureBucket(ctx))
	require.NoError(t, storage.Ping(ctx))

	key := "roundtrip/" + time.Now().Format("150405.000000") + ".xlsx"
	require.NoError(t, storage.Upload(ctx, key, []byte("PK\x03\x04"), "application/octet-stream"))

	exists, err := storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	url, _, err := storage.GenerateDownloadURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	require.NoError(t, storage.DeleteObject(ctx, key))
	exists, err = storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
