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

	"gameshelf/internal/config"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const backupPrefix = "gameshelf_"

// BackupService snapshots the SQLite file on an interval and prunes
// snapshots older than the retention window.
type BackupService struct {
	dbPath string
	cfg    config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{dbPath: dbPath, cfg: cfg, logger: logger}
}

// Start runs the backup loop until the context is canceled. A snapshot is
// taken immediately, then on every tick.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.cfg.StoragePath).Msg("backup loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PerformBackup(); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.cfg.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("bad backup schedule, defaulting to 24h")
		return 24 * time.Hour
	}
	return d
}

// PerformBackup writes a consistent snapshot next to the retained ones.
// VACUUM INTO gives a safe online copy; a raw file copy is the fallback.
func (s *BackupService) PerformBackup() error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + time.Now().Format("20060102_150405") + ".db"
	target := filepath.Join(s.cfg.StoragePath, name)

	src, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	if _, err := src.Exec(fmt.Sprintf("VACUUM INTO '%s'", target)); err != nil {
		s.logger.Warn().Err(err).Msg("vacuum backup failed, copying file instead")
		return s.copyFile(target)
	}

	s.logger.Info().Str("file", name).Msg("backup written")
	return nil
}

// copyFile is not transactionally safe for a live SQLite database; it only
// runs when VACUUM INTO is unavailable.
func (s *BackupService) copyFile(target string) error {
	in, err := os.Open(s.dbPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	s.logger.Info().Str("file", filepath.Base(target)).Msg("fallback backup written")
	return nil
}

// CleanupOldBackups removes snapshots past the retention window.
func (s *BackupService) CleanupOldBackups() {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		s.logger.Info().Str("file", entry.Name()).Msg("pruning old backup")
		_ = os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name()))
	}
}
