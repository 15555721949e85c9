package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvString returns the named environment variable and whether it was set
// to a non-empty value.
func EnvString(name string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(name))
	return value, value != ""
}

// EnvInt parses the named environment variable as an integer.
func EnvInt(name string) (int, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return value, true, nil
}

// ApplyEnv overlays IMPORTER_* environment variables onto cfg. Values from
// the environment beat the config file but lose to explicit flags.
func ApplyEnv(cfg *Config) error {
	if value, ok := EnvString("IMPORTER_STORE_URL"); ok {
		cfg.Store.URL = value
	}
	if value, ok := EnvString("IMPORTER_STORE_KIND"); ok {
		cfg.Store.Kind = StoreKind(value)
	}
	if value, ok := EnvString("IMPORTER_API_KEY"); ok {
		cfg.Store.APIKey = value
	}
	if value, ok := EnvString("IMPORTER_BUSINESS_ID"); ok {
		cfg.BusinessID = value
	}
	if value, ok := EnvString("IMPORTER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := EnvInt("IMPORTER_MAX_RETRIES"); err != nil {
		return err
	} else if ok {
		cfg.MaxRetries = value
	}
	return nil
}
