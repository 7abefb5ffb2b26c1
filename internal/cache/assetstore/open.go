package assetstore

import (
	"fmt"

	"github.com/iTrooz/news-reader/internal/config"
)

// New opens the storage backend selected in the configuration
func New(cfg config.StoreConfig) (Storage, error) {
	switch cfg.Driver {
	case "disk":
		disk := NewDisk(cfg.Folder)
		if err := disk.Init(); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		return disk, nil
	case "sqlite":
		db, err := NewSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "redis":
		client, err := NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
