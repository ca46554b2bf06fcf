// Package config handles runtime configuration: defaults, an optional JSON
// file, MOVIEWEB_* environment variables and finally command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for movieweb.
//
// Fields:
//   - Backend: storage strategy, one of json, sqlite or postgres.
//   - DataDir / JSONStoreName: the flat-file store lives at <DataDir>/<JSONStoreName>.json.
//   - DatabaseDSN: sqlite file path or postgres DSN (pgx).
//   - DefaultSnapshotPath: local sqlite file used by restore-default.
//   - SnapshotS3Bucket / SnapshotS3Key: when both are set restore-default
//     reads the snapshot from S3 instead of DefaultSnapshotPath.
//   - S3Region / S3BaseEndpoint / S3RootUser / S3RootPassword: S3-compatible backend settings.
//   - OMDbURL / OMDbAPIKey / OMDbTimeout: movie catalog client settings.
//   - LogLevel / LogFormat: slog level (debug|info|warn|error) and handler (json|text).
type Config struct {
	Backend             string        `env:"MOVIEWEB_BACKEND"`
	DataDir             string        `env:"MOVIEWEB_DATA_DIR"`
	JSONStoreName       string        `env:"MOVIEWEB_JSON_STORE_NAME"`
	DatabaseDSN         string        `env:"MOVIEWEB_DATABASE_DSN"`
	DefaultSnapshotPath string        `env:"MOVIEWEB_DEFAULT_SNAPSHOT_PATH"`
	SnapshotS3Bucket    string        `env:"MOVIEWEB_SNAPSHOT_S3_BUCKET"`
	SnapshotS3Key       string        `env:"MOVIEWEB_SNAPSHOT_S3_KEY"`
	S3Region            string        `env:"MOVIEWEB_S3_REGION"`
	S3BaseEndpoint      string        `env:"MOVIEWEB_S3_BASE_ENDPOINT"`
	S3RootUser          string        `env:"MOVIEWEB_S3_ROOT_USER"`
	S3RootPassword      string        `env:"MOVIEWEB_S3_ROOT_PASSWORD"`
	OMDbURL             string        `env:"MOVIEWEB_OMDB_URL"`
	OMDbAPIKey          string        `env:"MOVIEWEB_OMDB_API_KEY"`
	OMDbTimeout         time.Duration `env:"MOVIEWEB_OMDB_TIMEOUT"`
	LogLevel            string        `env:"MOVIEWEB_LOG_LEVEL"`
	LogFormat           string        `env:"MOVIEWEB_LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Backend = "sqlite"
	c.DataDir = "data"
	c.JSONStoreName = "app_data"
	c.DatabaseDSN = "data/movies.sqlite"
	c.DefaultSnapshotPath = "data/movies_default.sqlite"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.OMDbURL = "https://www.omdbapi.com/"
	c.OMDbTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// SnapshotFromS3 reports whether restore-default should read from S3.
func (c *Config) SnapshotFromS3() bool {
	return c.SnapshotS3Bucket != "" && c.SnapshotS3Key != ""
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Backend {
	case "json", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == "json" && c.JSONStoreName == "" {
		return fmt.Errorf("json store name cannot be empty")
	}
	if c.Backend != "json" && c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn cannot be empty for backend %q", c.Backend)
	}
	return nil
}

// Load builds a Config by applying defaults, then overlaying values from
// the JSON file named by the "config" flag, the environment and finally
// every flag in fs the user actually set. fs must have been populated by
// RegisterFlags and parsed; a nil fs skips the file and flag layers.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if fs != nil {
		path, err := fs.GetString(flagConfig)
		if err != nil {
			return nil, err
		}
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
