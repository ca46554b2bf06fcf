package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfig              = "config"
	flagBackend             = "backend"
	flagDataDir             = "data-dir"
	flagJSONStoreName       = "json-store"
	flagDatabaseDSN         = "database-dsn"
	flagDefaultSnapshotPath = "default-snapshot"
	flagSnapshotS3Bucket    = "snapshot-s3-bucket"
	flagSnapshotS3Key       = "snapshot-s3-key"
	flagS3Region            = "s3-region"
	flagS3BaseEndpoint      = "s3-endpoint"
	flagS3RootUser          = "s3-user"
	flagS3RootPassword      = "s3-password"
	flagOMDbURL             = "omdb-url"
	flagOMDbAPIKey          = "omdb-api-key"
	flagOMDbTimeout         = "omdb-timeout"
	flagLogLevel            = "log-level"
	flagLogFormat           = "log-format"
)

// RegisterFlags defines the configuration flags on fs. Their defaults only
// document the built-in values: Load applies a flag only when it was set
// on the command line, so a file or environment value is not clobbered.
//
// Flags (short forms):
//
//	-c --config string         JSON configuration file
//	-b --backend string        json, sqlite or postgres
//	-d --database-dsn string   sqlite path or postgres DSN
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to JSON configuration file")
	fs.StringP(flagBackend, "b", d.Backend, "storage backend (json|sqlite|postgres)")
	fs.String(flagDataDir, d.DataDir, "data directory of the flat-file store")
	fs.String(flagJSONStoreName, d.JSONStoreName, "flat-file store name")
	fs.StringP(flagDatabaseDSN, "d", d.DatabaseDSN, "sqlite path or postgres DSN")
	fs.String(flagDefaultSnapshotPath, d.DefaultSnapshotPath, "default sqlite snapshot file")
	fs.String(flagSnapshotS3Bucket, d.SnapshotS3Bucket, "S3 bucket holding the default snapshot")
	fs.String(flagSnapshotS3Key, d.SnapshotS3Key, "S3 key of the default snapshot")
	fs.String(flagS3Region, d.S3Region, "S3 region")
	fs.String(flagS3BaseEndpoint, d.S3BaseEndpoint, "S3 base endpoint")
	fs.String(flagS3RootUser, d.S3RootUser, "S3 access key")
	fs.String(flagS3RootPassword, d.S3RootPassword, "S3 secret key")
	fs.String(flagOMDbURL, d.OMDbURL, "OMDb API base URL")
	fs.String(flagOMDbAPIKey, d.OMDbAPIKey, "OMDb API key")
	fs.Duration(flagOMDbTimeout, d.OMDbTimeout, "OMDb request timeout")
	fs.String(flagLogLevel, d.LogLevel, "log level (debug|info|warn|error)")
	fs.String(flagLogFormat, d.LogFormat, "log format (json|text)")
}

func applyFlags(config *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		flagBackend:             &config.Backend,
		flagDataDir:             &config.DataDir,
		flagJSONStoreName:       &config.JSONStoreName,
		flagDatabaseDSN:         &config.DatabaseDSN,
		flagDefaultSnapshotPath: &config.DefaultSnapshotPath,
		flagSnapshotS3Bucket:    &config.SnapshotS3Bucket,
		flagSnapshotS3Key:       &config.SnapshotS3Key,
		flagS3Region:            &config.S3Region,
		flagS3BaseEndpoint:      &config.S3BaseEndpoint,
		flagS3RootUser:          &config.S3RootUser,
		flagS3RootPassword:      &config.S3RootPassword,
		flagOMDbURL:             &config.OMDbURL,
		flagOMDbAPIKey:          &config.OMDbAPIKey,
		flagLogLevel:            &config.LogLevel,
		flagLogFormat:           &config.LogFormat,
	}

	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed(flagOMDbTimeout) {
		v, err := fs.GetDuration(flagOMDbTimeout)
		if err != nil {
			return err
		}
		config.OMDbTimeout = v
	}
	return nil
}
