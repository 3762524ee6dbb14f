package siamatlas

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/siamatlas/siamatlas/internal/blob"
	"github.com/siamatlas/siamatlas/pkg/editor"
	"github.com/siamatlas/siamatlas/pkg/store"
	"github.com/siamatlas/siamatlas/pkg/store/memory"
	"github.com/siamatlas/siamatlas/pkg/store/postgres"
	"github.com/siamatlas/siamatlas/pkg/store/surrealdb"
)

// Backend selects the persistence layer.
type Backend string

const (
	BackendSurreal  Backend = "surreal"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Config holds application configuration, populated by Parse from flags and
// the environment.
type Config struct {
	Backend Backend

	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	PostgresDSN string

	// MediaBaseURL prefixes stored blob keys to build public asset URLs.
	MediaBaseURL string

	ServerPort string
	ReadOnly   bool
}

// App holds the application state: the wrapped store, the media host, the
// persistence bridge and the session registry. Nothing here is a package
// global; tests construct as many independent Apps as they need.
type App struct {
	store    store.Store
	blobs    blob.Store
	bridge   *editor.Bridge
	sessions *sessionStore
	config   *Config
	log      zerolog.Logger
	readOnly bool
}

// New connects the configured backend and media host and wires the app.
func New(ctx context.Context, config *Config) (*App, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "siamatlas").Logger()

	var appStore store.Store
	var err error
	switch config.Backend {
	case BackendSurreal, "":
		appStore, err = surrealdb.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("connecting to surrealdb: %w", err)
		}
		log.Info().Str("url", config.SurrealDBURL).Msg("connected to surrealdb")
	case BackendPostgres:
		appStore, err = postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")
	case BackendMemory:
		appStore = memory.New()
	default:
		return nil, fmt.Errorf("unknown backend %q", config.Backend)
	}

	blobs, err := blob.Open(ctx)
	if err != nil {
		appStore.Close()
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	log.Info().Str("driver", string(blobs.Driver())).Msg("media host ready")

	app := &App{
		blobs:    blobs,
		sessions: newSessionStore(),
		config:   config,
		log:      log,
		readOnly: config.ReadOnly,
	}
	app.store = store.NewReadOnlyStore(appStore, app.IsReadOnly)
	app.bridge = editor.NewBridge(app.store, blobs, config.MediaBaseURL)
	return app, nil
}

// NewWithStore wires an app around pre-built store and blob instances.
// Used by tests and embedding callers.
func NewWithStore(st store.Store, blobs blob.Store, config *Config) *App {
	app := &App{
		blobs:    blobs,
		sessions: newSessionStore(),
		config:   config,
		log:      zerolog.Nop(),
		readOnly: config.ReadOnly,
	}
	app.store = store.NewReadOnlyStore(st, app.IsReadOnly)
	app.bridge = editor.NewBridge(app.store, blobs, config.MediaBaseURL)
	return app
}

// Close releases the store connection.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the wrapped store, useful for tests and seeding.
func (a *App) Store() store.Store { return a.store }

// SetReadOnly toggles write rejection at the store wrapper. Used during
// maintenance windows; reads keep working.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly = readOnly
	a.log.Info().Bool("read_only", readOnly).Msg("read-only mode changed")
}

// IsReadOnly is checked by the store wrapper on every write.
func (a *App) IsReadOnly() bool { return a.readOnly }

// getEnv returns the environment value for key, or a default when unset or
// empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
