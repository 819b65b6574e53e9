package kv

import (
	"fmt"

	"exptrack/internal/config"
	"exptrack/internal/log"
)

// NewBackend selects and constructs the configured backend.
func NewBackend(cfg config.StorageConfig, logger *log.Logger) (Backend, error) {
	switch cfg.Backend {
	case "sqlite":
		backend, err := NewSQLiteBackend(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.Path)
		return backend, nil
	case "memory":
		logger.Info("Initialized memory backend")
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
