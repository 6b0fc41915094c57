package recordstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/config"
)

// NewFromConfig builds the record store selected by cfg.DBDriver.
func NewFromConfig(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		log.Info().Str("path", cfg.RecordDBPath).Msg("using sqlite record store")
		return NewSQLite(cfg.RecordDBPath)
	case "postgres":
		log.Info().Msg("using postgres record store")
		return NewPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
