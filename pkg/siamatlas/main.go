package siamatlas

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// Main is the application entry point: parse arguments, build the App and
// execute the selected command. Callable from tests without building the
// binary.
//
// Environment variables:
//
//	SURREALDB_URL / SURREALDB_NS / SURREALDB_DB / SURREALDB_USER / SURREALDB_PASS
//	POSTGRES_DSN
//	SIAMATLAS_BLOB_DRIVER / SIAMATLAS_BLOB_FS_ROOT / SIAMATLAS_BLOB_S3_*
//	SIAMATLAS_MEDIA_BASE_URL
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *SeedCommand:
		if err := app.Seed(ctx, c); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
	return nil
}

// Seed creates the initial admin account with the master role. Fails when
// the login is already taken.
func (a *App) Seed(ctx context.Context, cmd *SeedCommand) error {
	existing, err := a.store.GetAdminByLogin(ctx, cmd.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("admin %q already exists", cmd.Username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.Admin{
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: string(hash),
		Role:         models.AdminRoleMaster,
	}
	if err := a.store.CreateAdmin(ctx, admin); err != nil {
		return err
	}
	a.log.Info().Str("username", cmd.Username).Msg("seed admin created")
	return nil
}
