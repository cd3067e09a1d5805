package index

import (
	"fmt"

	"facematch/internal/config"
	"facematch/internal/index/local"
	"facematch/internal/index/milvus"
)

// New constructs the backend selected by the config. This factory is
// the only place the mode string is branched on; everything above it
// works against the Backend interface.
func New(cfg *config.Config) (Backend, error) {
	switch cfg.Mode {
	case config.ModeLocal:
		return local.New(local.Config{
			Path:       cfg.LocalPath,
			Collection: cfg.CollectionName(),
			Dimension:  cfg.Dimension(),
		})
	case config.ModeRemote:
		return milvus.New(milvus.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Collection: cfg.CollectionName(),
			Dimension:  cfg.Dimension(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown index mode %q", cfg.Mode)
	}
}
