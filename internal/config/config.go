// Package config loads the worker's credentials and catalog settings from the
// environment, after an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Tommy88/xparser/internal/infra/notifier"
	"github.com/Tommy88/xparser/internal/infra/scraper"
	"github.com/Tommy88/xparser/internal/usecase/notify"
	"github.com/Tommy88/xparser/internal/usecase/reconcile"
)

// Storage drivers.
const (
	StorageJSON     = "json"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig is the environment-driven configuration of the catalog worker.
type AppConfig struct {
	Telegram TelegramSettings

	CatalogURL     string        `env:"CATALOG_URL"`
	ProfilePath    string        `env:"CATALOG_PROFILE"`
	DataDir        string        `env:"DATA_DIR" envDefault:"."`
	SnapshotFile   string        `env:"SNAPSHOT_FILE" envDefault:"games_data.json"`
	DiffFile       string        `env:"DIFF_FILE" envDefault:"diff_data.json"`
	Retention      time.Duration `env:"RETENTION" envDefault:"168h"`
	StorageDriver  string        `env:"STORAGE_DRIVER" envDefault:"json"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SuppressValues []string      `env:"SUPPRESS_VALUES" envSeparator:"|"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// TelegramSettings holds the bot credentials and destination.
type TelegramSettings struct {
	Enabled           bool          `env:"TG_ENABLED" envDefault:"true"`
	Token             string        `env:"TG_TOKEN"`
	GroupID           int64         `env:"TG_GROUP_ID"`
	APIURL            string        `env:"TG_API_URL"`
	Timeout           time.Duration `env:"TG_TIMEOUT" envDefault:"30s"`
	MessagesPerMinute float64       `env:"TG_MESSAGES_PER_MINUTE" envDefault:"20"`
}

// Load reads an optional .env file from the working directory, then parses
// and validates the environment. Variables already set win over the file.
func Load() (AppConfig, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads AppConfig from the current environment without touching .env.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, nameVariables(err))
	}
	if cfg.SuppressValues == nil {
		cfg.SuppressValues = append([]string(nil), notify.DefaultSuppressValues...)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// nameVariables rewrites env parse errors, which name struct fields, to name
// the environment variable instead.
func nameVariables(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return err
	}
	keys := envKeys(reflect.TypeOf(AppConfig{}))
	errs := make([]error, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if errors.As(e, &pe) {
			if key, ok := keys[pe.Name]; ok {
				e = fmt.Errorf("%s: invalid %s value: %w", key, pe.Type, pe.Err)
			}
		}
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// envKeys maps struct field names, nested ones included, to their env tag.
func envKeys(t reflect.Type) map[string]string {
	keys := map[string]string{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Struct {
			for k, v := range envKeys(f.Type) {
				keys[k] = v
			}
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("env"), ","); tag != "" {
			keys[f.Name] = tag
		}
	}
	return keys
}

// Validate checks cross-field constraints env tags cannot express.
func (c AppConfig) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageJSON:
	case StorageSQLite, StoragePostgres:
		if c.StorageDriver == StoragePostgres && c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of json, sqlite, postgres", c.StorageDriver))
	}

	if c.Retention <= 0 {
		errs = append(errs, fmt.Errorf("RETENTION must be positive, got %v", c.Retention))
	}
	if c.CatalogURL != "" {
		if err := validateHTTPURL(c.CatalogURL); err != nil {
			errs = append(errs, fmt.Errorf("CATALOG_URL: %w", err))
		}
	}

	if c.Telegram.Enabled {
		if strings.TrimSpace(c.Telegram.Token) == "" {
			errs = append(errs, errors.New("TG_TOKEN is required when TG_ENABLED is true"))
		}
		if c.Telegram.GroupID == 0 {
			errs = append(errs, errors.New("TG_GROUP_ID is required when TG_ENABLED is true"))
		}
		if c.Telegram.APIURL != "" {
			if err := validateHTTPURL(c.Telegram.APIURL); err != nil {
				errs = append(errs, fmt.Errorf("TG_API_URL: %w", err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TelegramConfig converts the settings for the notifier.
func (c AppConfig) TelegramConfig() notifier.TelegramConfig {
	return notifier.TelegramConfig{
		Enabled:           c.Telegram.Enabled,
		Token:             c.Telegram.Token,
		ChatID:            c.Telegram.GroupID,
		APIURL:            c.Telegram.APIURL,
		Timeout:           c.Telegram.Timeout,
		MessagesPerMinute: c.Telegram.MessagesPerMinute,
	}
}

// Profile returns the scraper profile: the YAML file at CATALOG_PROFILE when
// set, otherwise the built-in defaults. CATALOG_URL overrides either.
func (c AppConfig) Profile() (scraper.Profile, error) {
	p := scraper.DefaultProfile()
	if c.ProfilePath != "" {
		loaded, err := scraper.LoadProfile(c.ProfilePath)
		if err != nil {
			return scraper.Profile{}, err
		}
		p = loaded
	}
	if c.CatalogURL != "" {
		p.URL = c.CatalogURL
	}
	return p, nil
}

// SnapshotPath is the JSON snapshot file inside DataDir. Absolute names are kept.
func (c AppConfig) SnapshotPath() string { return c.dataPath(c.SnapshotFile) }

// DiffPath is the JSON diff audit file inside DataDir.
func (c AppConfig) DiffPath() string { return c.dataPath(c.DiffFile) }

// SQLitePath is the database file used by the sqlite driver when
// DATABASE_URL is empty.
func (c AppConfig) SQLitePath() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.dataPath("catalog.db")
}

// EffectiveRetention falls back to the reconciler default.
func (c AppConfig) EffectiveRetention() time.Duration {
	if c.Retention <= 0 {
		return reconcile.DefaultRetention
	}
	return c.Retention
}

func (c AppConfig) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is empty")
	}
	return nil
}
