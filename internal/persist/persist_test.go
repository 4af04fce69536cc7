package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/phuocduong/prime-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "migrations/00001_effect_stats.sql", files[0])

	raw, err := migrations.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "-- +goose Down")
}

func TestNewDBRejectsBadDSN(t *testing.T) {
	_, err := NewDB(context.Background(), config.DatabaseConfig{DSN: "postgres://%zz"}, zap.NewNop())
	assert.Error(t, err)
}

// TestStatsRoundTrip needs a scratch database, e.g.
// PRIME_FX_TEST_DSN=postgres://fx:fx@localhost:5432/fx_test?sslmode=disable
func TestStatsRoundTrip(t *testing.T) {
	dsn := os.Getenv("PRIME_FX_TEST_DSN")
	if dsn == "" {
		t.Skip("PRIME_FX_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(ctx, db.Pool))

	repo := NewStatsRepo(db)
	runID := "test-" + time.Now().Format("150405.000000")
	rows := []StatsRow{
		{RunID: runID, Tick: 10, System: "vapor", Kind: "linear", Capacity: 4, IndexCount: 2, SyncCount: 4, Spawned: 4, Expired: 2},
		{RunID: runID, Tick: 20, System: "vapor", Kind: "linear", Capacity: 4, Clears: 1, Spawned: 4, Expired: 4},
	}
	require.NoError(t, repo.WriteSnapshots(ctx, rows))

	got, err := repo.Recent(ctx, runID, "vapor", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows[1], got[0])
	assert.Equal(t, rows[0], got[1])
}
