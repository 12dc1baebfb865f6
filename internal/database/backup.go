package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autoassist/internal/config"

	"github.com/rs/zerolog"
)

// BackupSource is one store to back up.
type BackupSource struct {
	Name string
	DB   *sql.DB
	Path string
}

// Sources returns the backup sources of both stores.
func Sources(db *DB, inv *InventoryDB) []BackupSource {
	return []BackupSource{
		{Name: "service", DB: db.DB, Path: db.path},
		{Name: "inventory", DB: inv.DB, Path: inv.path},
	}
}

type BackupService struct {
	sources []BackupSource
	config  config.BackupConfig
	logger  *zerolog.Logger
}

func NewBackupService(cfg config.BackupConfig, logger *zerolog.Logger, sources ...BackupSource) *BackupService {
	return &BackupService{
		sources: sources,
		config:  cfg,
		logger:  logger,
	}
}

// Start runs scheduled backups until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	interval := 24 * time.Hour
	if s.config.Schedule != "" {
		if d, err := time.ParseDuration(s.config.Schedule); err == nil && d > 0 {
			interval = d
		} else {
			s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Failed to parse backup schedule, using default 24h")
		}
	}
	s.logger.Info().Dur("interval", interval).Int("sources", len(s.sources)).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PerformBackup(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup writes one file per source and returns their paths.
func (s *BackupService) PerformBackup(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	paths := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		backupPath := filepath.Join(s.config.StoragePath, fmt.Sprintf("%s_%s.db", src.Name, timestamp))
		if err := s.backupOne(ctx, src, backupPath); err != nil {
			return paths, fmt.Errorf("failed to back up %s: %w", src.Name, err)
		}
		paths = append(paths, backupPath)
	}
	return paths, nil
}

func (s *BackupService) backupOne(ctx context.Context, src BackupSource, backupPath string) error {
	s.logger.Info().Str("source", src.Name).Str("path", backupPath).Msg("Performing database backup using VACUUM INTO")

	quoted := strings.ReplaceAll(backupPath, "'", "''")
	_, err := src.DB.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted))
	if err == nil {
		s.logger.Info().Str("source", src.Name).Msg("Backup completed successfully")
		return nil
	}
	if src.Path == "" || src.Path == ":memory:" {
		return err
	}
	s.logger.Warn().Err(err).Str("source", src.Name).Msg("VACUUM INTO failed, falling back to file copy")
	return copyFile(src.Path, backupPath)
}

func copyFile(from, to string) error {
	source, err := os.Open(from)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(to)
	if err != nil {
		return err
	}
	defer destination.Close()

	// Note: io.Copy is not atomic for SQLite and might result in a corrupted backup if writes occur
	_, err = io.Copy(destination, source)
	return err
}

// CleanupOldBackups removes backup files older than the retention period.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".db" {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("Deleting old backup")
			if err := os.Remove(filepath.Join(s.config.StoragePath, file.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to delete old backup")
			}
		}
	}
}
