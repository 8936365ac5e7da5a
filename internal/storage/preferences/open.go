package preferences

import (
	"context"
	"fmt"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
)

// Backend type constants.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates a preference store based on the configuration.
// Supported backends: "sqlite" (default), "memory".
func Open(ctx context.Context, logger *common.Logger, config common.StorageConfig) (interfaces.PreferenceStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	switch backend {
	case BackendSQLite:
		return OpenSQLite(ctx, logger, config.Path)
	case BackendMemory:
		logger.Info().Msg("Preferences held in memory; they will not survive a restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, memory)", backend)
	}
}
