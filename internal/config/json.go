package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration accepts both "10s"-style strings and integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// JsonConfig is the on-disk shape of the configuration file. Only fields
// present and non-empty in the file override the running Config.
type JsonConfig struct {
	Backend             string   `json:"backend"`
	DataDir             string   `json:"data_dir"`
	JSONStoreName       string   `json:"json_store_name"`
	DatabaseDSN         string   `json:"database_dsn"`
	DefaultSnapshotPath string   `json:"default_snapshot_path"`
	SnapshotS3Bucket    string   `json:"snapshot_s3_bucket"`
	SnapshotS3Key       string   `json:"snapshot_s3_key"`
	S3Region            string   `json:"s3_region"`
	S3BaseEndpoint      string   `json:"s3_base_endpoint"`
	S3RootUser          string   `json:"s3_root_user"`
	S3RootPassword      string   `json:"s3_root_password"`
	OMDbURL             string   `json:"omdb_url"`
	OMDbAPIKey          string   `json:"omdb_api_key"`
	OMDbTimeout         Duration `json:"omdb_timeout"`
	LogLevel            string   `json:"log_level"`
	LogFormat           string   `json:"log_format"`
}

// parseJSON overlays the file at path onto config. An empty path loads
// nothing.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.Backend, c.Backend)
	setString(&config.DataDir, c.DataDir)
	setString(&config.JSONStoreName, c.JSONStoreName)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DefaultSnapshotPath, c.DefaultSnapshotPath)
	setString(&config.SnapshotS3Bucket, c.SnapshotS3Bucket)
	setString(&config.SnapshotS3Key, c.SnapshotS3Key)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.OMDbURL, c.OMDbURL)
	setString(&config.OMDbAPIKey, c.OMDbAPIKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.OMDbTimeout.Duration != 0 {
		config.OMDbTimeout = c.OMDbTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
