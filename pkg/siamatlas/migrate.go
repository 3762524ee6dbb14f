package siamatlas

import (
	"context"
)

// Migrate advances the backend schema to the current model definitions.
// PostgreSQL runs GORM AutoMigrate; the document backends need no DDL, so
// the call doubles as a connectivity check. Idempotent.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.log.Info().Str("backend", string(a.config.Backend)).Msg("running migrations")
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("migrations complete")
	return nil
}
