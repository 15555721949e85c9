// Package config holds import runner configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

// StoreKind selects the record-store backend.
type StoreKind string

const (
	StoreREST     StoreKind = "rest"
	StorePostgres StoreKind = "postgres"
	StoreSQLite   StoreKind = "sqlite"
	StoreMongo    StoreKind = "mongo"
)

// StoreConfig describes how to reach the record store.
type StoreConfig struct {
	Kind StoreKind `yaml:"kind"`
	// URL is the REST base URL, Postgres DSN, Mongo URI, or SQLite path,
	// depending on Kind.
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	Table          string `yaml:"table"`
	Database       string `yaml:"database"`
	IDColumn       string `yaml:"id_column"`
	BusinessColumn string `yaml:"business_column"`
}

// Config holds one import run's configuration.
type Config struct {
	BusinessID   string             `yaml:"business_id"`
	Policy       models.MatchPolicy `yaml:"policy"`
	Columns      models.ColumnMap   `yaml:"columns"`
	RequirePrice bool               `yaml:"require_price"`
	Store        StoreConfig        `yaml:"store"`
	MetricsAddr  string             `yaml:"metrics_addr"`

	// Not read from the config file; set from flags.
	Timeout         time.Duration `yaml:"-"`
	MaxRetries      int           `yaml:"-"`
	RetryBackoff    time.Duration `yaml:"-"`
	RetryBackoffMax time.Duration `yaml:"-"`
	DryRun          bool          `yaml:"-"`
	Verbose         bool          `yaml:"-"`
}

// DefaultProductConfig returns the product-import defaults: Spanish ERP
// column names and update-on-match.
func DefaultProductConfig() *Config {
	return &Config{
		Policy: models.UpdateOnMatch,
		Columns: models.ColumnMap{
			Code:        "codigo",
			Name:        "nombre",
			Description: "descripcion",
			Price:       "precio",
			Stock:       "stock",
			MinStock:    "stock_minimo",
		},
		RequirePrice: true,
		Store: StoreConfig{
			Kind:           StoreSQLite,
			URL:            "data/inventario.db",
			Table:          "productos",
			IDColumn:       "id",
			BusinessColumn: "negocio_id",
		},
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    200 * time.Millisecond,
		RetryBackoffMax: 2 * time.Second,
	}
}

// DefaultSupplierConfig returns the supplier-import defaults: tax-id keyed
// rows with no price column, skip-on-match.
func DefaultSupplierConfig() *Config {
	cfg := DefaultProductConfig()
	cfg.Policy = models.SkipOnMatch
	cfg.Columns = models.ColumnMap{
		Code:        "nit",
		Name:        "nombre",
		Description: "contacto",
	}
	cfg.RequirePrice = false
	cfg.Store.Table = "proveedores"
	return cfg
}

// Load overlays the YAML file at path onto cfg.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Policy != models.UpdateOnMatch && c.Policy != models.SkipOnMatch {
		return fmt.Errorf("policy must be %q or %q", models.UpdateOnMatch, models.SkipOnMatch)
	}
	if c.Columns.Code == "" {
		return fmt.Errorf("code column cannot be empty")
	}
	if c.Columns.Name == "" {
		return fmt.Errorf("name column cannot be empty")
	}
	if c.RequirePrice && c.Columns.Price == "" {
		return fmt.Errorf("price column cannot be empty when price is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}

	switch c.Store.Kind {
	case StoreREST:
		parsed, err := url.Parse(c.Store.URL)
		if err != nil {
			return fmt.Errorf("invalid store url: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("store url must include a host")
		}
		if c.Store.Table == "" {
			return fmt.Errorf("store table cannot be empty")
		}
	case StorePostgres, StoreMongo:
		if c.Store.URL == "" {
			return fmt.Errorf("store url cannot be empty")
		}
		if c.Store.Table == "" {
			return fmt.Errorf("store table cannot be empty")
		}
		if c.Store.Kind == StoreMongo && c.Store.Database == "" {
			return fmt.Errorf("store database cannot be empty for mongo")
		}
	case StoreSQLite:
		if c.Store.URL == "" {
			return fmt.Errorf("store path cannot be empty")
		}
	default:
		return fmt.Errorf("store kind must be rest, postgres, sqlite, or mongo")
	}

	return nil
}
