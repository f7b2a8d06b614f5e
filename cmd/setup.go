package cmd

import (
	"fmt"

	"roster-manager/core/config"
	"roster-manager/core/database"
	"roster-manager/core/logger"
	"roster-manager/core/scriptio"
	"roster-manager/core/storage"
	"roster-manager/feature/library"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles the wired collaborators every command starts from.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	store   *library.Store
	service *library.Service
}

// bootstrap loads configuration and wires the library service. Every
// command goes through here so the CLI and the server agree on wiring.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}

	store, err := library.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open library index: %w", err)
	}

	// The backup mirror is optional; without it script backups stay local.
	var mirror storage.Client
	if cfg.Storage.Enabled {
		mirror, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
	}
	saver := scriptio.NewSaver(cfg.Library.BackupKeep, l, mirror, cfg.Storage.Bucket)

	return &app{
		cfg:     cfg,
		logger:  l,
		db:      db,
		store:   store,
		service: library.NewService(cfg.Library, store, saver, l),
	}, nil
}
