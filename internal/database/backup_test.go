package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autoassist/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")
	logger := zerolog.Nop()

	db, err := NewDB(filepath.Join(tempDir, "service.db"), &logger)
	require.NoError(t, err)
	defer db.Close()
	inv, err := NewInventoryDB(filepath.Join(tempDir, "inventory.db"), &logger)
	require.NoError(t, err)
	defer inv.Close()

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	s := NewBackupService(cfg, &logger, Sources(db, inv)...)

	t.Run("PerformBackup", func(t *testing.T) {
		paths, err := s.PerformBackup(context.Background())
		require.NoError(t, err)
		assert.Len(t, paths, 2)
		for _, p := range paths {
			assert.FileExists(t, p)
		}
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "service_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

		s.CleanupOldBackups()

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 2)
		for _, f := range files {
			assert.NotEqual(t, "service_old.db", f.Name())
		}
	})
}

func TestBackupService_InMemory(t *testing.T) {
	logger := zerolog.Nop()
	db := setupTestDB(t)
	s := NewBackupService(config.BackupConfig{StoragePath: t.TempDir()}, &logger,
		BackupSource{Name: "service", DB: db.DB, Path: db.Path()})

	paths, err := s.PerformBackup(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.FileExists(t, paths[0])
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}

func TestBackupService_BadStoragePath(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "not-a-dir")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	logger := zerolog.Nop()
	db := setupTestDB(t)
	s := NewBackupService(config.BackupConfig{StoragePath: filepath.Join(filePath, "sub")}, &logger,
		BackupSource{Name: "service", DB: db.DB})

	_, err := s.PerformBackup(context.Background())
	assert.Error(t, err)
}
