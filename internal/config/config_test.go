package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "sqlite", c.Backend)
	assert.Equal(t, "data", c.DataDir)
	assert.Equal(t, "app_data", c.JSONStoreName)
	assert.Equal(t, "data/movies.sqlite", c.DatabaseDSN)
	assert.Equal(t, "data/movies_default.sqlite", c.DefaultSnapshotPath)
	assert.Equal(t, "https://www.omdbapi.com/", c.OMDbURL)
	assert.Equal(t, 10*time.Second, c.OMDbTimeout)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.False(t, c.SnapshotFromS3())
	assert.NoError(t, c.Validate())
}

func TestLoad_NoSources(t *testing.T) {
	c, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), c))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"backend":            "json",
		"data_dir":           "/var/lib/movieweb",
		"json_store_name":    "from_file",
		"omdb_timeout":       "3s",
		"log_format":         "text",
		"snapshot_s3_bucket": "snapshots",
		"snapshot_s3_key":    "movies.sqlite",
	})

	t.Setenv("MOVIEWEB_JSON_STORE_NAME", "from_env")
	t.Setenv("MOVIEWEB_LOG_LEVEL", "debug")

	fs := newFlagSet(t, "-c", path, "--log-level", "warn", "--omdb-timeout", "5s")

	c, err := Load(fs)
	require.NoError(t, err)

	want := defaults()
	want.Backend = "json"
	want.DataDir = "/var/lib/movieweb"
	want.JSONStoreName = "from_env"
	want.LogFormat = "text"
	want.LogLevel = "warn"
	want.OMDbTimeout = 5 * time.Second
	want.SnapshotS3Bucket = "snapshots"
	want.SnapshotS3Key = "movies.sqlite"

	assert.Empty(t, cmp.Diff(want, c))
	assert.True(t, c.SnapshotFromS3())
}

func TestLoad_UnsetFlagsDoNotOverrideFile(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"database_dsn": "other.sqlite"})

	c, err := Load(newFlagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "other.sqlite", c.DatabaseDSN)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(newFlagSet(t, "-c", filepath.Join(t.TempDir(), "nope.json")))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := Load(newFlagSet(t, "-c", path))
		assert.Error(t, err)
	})

	t.Run("invalid duration in json", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"omdb_timeout": true})
		_, err := Load(newFlagSet(t, "-c", path))
		assert.Error(t, err)
	})

	t.Run("invalid env duration", func(t *testing.T) {
		t.Setenv("MOVIEWEB_OMDB_TIMEOUT", "soon")
		_, err := Load(newFlagSet(t))
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Load(newFlagSet(t, "-b", "mongo"))
		assert.Error(t, err)
	})
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m"`), &d))
	assert.Equal(t, time.Minute, d.Duration)

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, d.Duration)
}

func TestLoad_NilFlagSet(t *testing.T) {
	t.Setenv("MOVIEWEB_BACKEND", "postgres")
	t.Setenv("MOVIEWEB_DATABASE_DSN", "postgres://localhost/movies")

	c, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Backend)
	assert.Equal(t, "postgres://localhost/movies", c.DatabaseDSN)
}
