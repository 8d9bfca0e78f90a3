package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"patchimport/config"
	"patchimport/storage"
	"patchimport/upload"
)

// openStore opens the configured database, creating its directory when needed.
func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Storage.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return storage.OpenSQLite(cfg.Storage.DBPath)
}

func newUploadService(cfg *config.Config, store *storage.SQLiteStore) *upload.Service {
	return upload.NewService(store, cfg.Storage.UploadDir, logger)
}
