// Package arcana builds the arcana command tree: composing, saving, listing,
// exporting and rolling ordinances, browsing the catalog and serving MCP.
package arcana

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/louisbranch/arcana/internal/platform/config"
	"github.com/louisbranch/arcana/internal/platform/logging"
	platformotel "github.com/louisbranch/arcana/internal/platform/otel"
	"github.com/louisbranch/arcana/internal/services/arcana/app"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	arcanamcp "github.com/louisbranch/arcana/internal/services/arcana/mcp"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
	"github.com/louisbranch/arcana/internal/services/arcana/storage"
	"github.com/louisbranch/arcana/internal/services/arcana/storage/jsonfile"
	"github.com/louisbranch/arcana/internal/services/arcana/storage/sqlite"
)

const (
	backendJSON   = "json"
	backendSQLite = "sqlite"
)

// Config holds arcana command configuration. Flags override the
// environment.
type Config struct {
	StoreBackend string `env:"ARCANA_STORE_BACKEND" envDefault:"json"`
	StorePath    string `env:"ARCANA_STORE_PATH"    envDefault:"ordinances_db.json"`
	SQLitePath   string `env:"ARCANA_SQLITE_PATH"   envDefault:"arcana.db"`
	SnapshotDir  string `env:"ARCANA_SNAPSHOT_DIR"`
	CatalogPath  string `env:"ARCANA_CATALOG_PATH"`
	Locale       string `env:"ARCANA_LOCALE"        envDefault:"en-US"`
	CacheSize    int    `env:"ARCANA_CACHE_SIZE"    envDefault:"256"`

	Log  logging.Config
	Otel platformotel.Config
	MCP  arcanamcp.Config
}

// LoadConfig reads configuration from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFrom reads configuration from environment instead of the process
// environment.
func LoadConfigFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environment); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadCatalog returns the embedded catalog, or the one in CatalogPath.
func loadCatalog(cfg Config) (*catalog.Catalog, error) {
	if dir := strings.TrimSpace(cfg.CatalogPath); dir != "" {
		return catalog.LoadDir(dir)
	}
	return catalog.Default()
}

// openStore opens the configured ordinance store.
func openStore(cfg Config, logger *zap.Logger) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "", backendJSON:
		opts := []jsonfile.Option{jsonfile.WithLogger(logger)}
		if dir := strings.TrimSpace(cfg.SnapshotDir); dir != "" {
			opts = append(opts, jsonfile.WithSnapshotDir(dir))
		}
		store, err := jsonfile.Open(cfg.StorePath, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case backendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("store backend %q is not supported", cfg.StoreBackend)
	}
}

// openService wires the catalog, engine and store into an app.Service. The
// returned close function releases the store.
func openService(cfg Config, logger *zap.Logger) (*app.Service, func() error, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	engine := rules.NewEngine(cat, rules.WithLocale(cfg.Locale))
	svc, err := app.NewService(engine, store, app.WithCacheSize(cfg.CacheSize), app.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return svc, store.Close, nil
}
