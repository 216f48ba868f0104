package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every COLLEGEDESK_ env var that Load() reads.
var allConfigKeys = []string{
	"COLLEGEDESK_LISTEN_ADDR",
	"COLLEGEDESK_DB_PATH",
	"COLLEGEDESK_DATASTORE",
	"COLLEGEDESK_DATASTORE_URL",
	"COLLEGEDESK_DATASTORE_KEY",
	"COLLEGEDESK_TIER_CACHE_TTL",
	"COLLEGEDESK_LOG_LEVEL",
	"COLLEGEDESK_LOG_FORMAT",
}

// isolateConfigEnv saves and unsets all COLLEGEDESK_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COLLEGEDESK_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("COLLEGEDESK_DB_PATH", "/tmp/test.db")
	t.Setenv("COLLEGEDESK_TIER_CACHE_TTL", "30s")
	t.Setenv("COLLEGEDESK_LOG_LEVEL", "debug")
	t.Setenv("COLLEGEDESK_LOG_FORMAT", "JSON")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.TierCacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.UsesRemote())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "collegedesk.db", cfg.DBPath)
	assert.Equal(t, DatastoreSQLite, cfg.Datastore)
	assert.Equal(t, 5*time.Minute, cfg.TierCacheTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.NotNil(t, cfg.NewLogger())
}

func TestLoad_Remote(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COLLEGEDESK_DATASTORE", "Remote")
	t.Setenv("COLLEGEDESK_DATASTORE_URL", "https://db.example.test")
	t.Setenv("COLLEGEDESK_DATASTORE_KEY", "anon-key")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.UsesRemote())
	assert.Equal(t, "https://db.example.test", cfg.DatastoreURL)
	assert.Equal(t, "anon-key", cfg.DatastoreKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "unknown datastore",
			env:     map[string]string{"COLLEGEDESK_DATASTORE": "mongo"},
			wantMsg: "COLLEGEDESK_DATASTORE",
		},
		{
			name:    "remote without url",
			env:     map[string]string{"COLLEGEDESK_DATASTORE": "remote", "COLLEGEDESK_DATASTORE_KEY": "k"},
			wantMsg: "COLLEGEDESK_DATASTORE_URL",
		},
		{
			name:    "remote without key",
			env:     map[string]string{"COLLEGEDESK_DATASTORE": "remote", "COLLEGEDESK_DATASTORE_URL": "https://db.example.test"},
			wantMsg: "COLLEGEDESK_DATASTORE_KEY",
		},
		{
			name:    "bad ttl",
			env:     map[string]string{"COLLEGEDESK_TIER_CACHE_TTL": "soon"},
			wantMsg: "COLLEGEDESK_TIER_CACHE_TTL",
		},
		{
			name:    "negative ttl",
			env:     map[string]string{"COLLEGEDESK_TIER_CACHE_TTL": "-1m"},
			wantMsg: "must not be negative",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"COLLEGEDESK_LOG_LEVEL": "loud"},
			wantMsg: "COLLEGEDESK_LOG_LEVEL",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"COLLEGEDESK_LOG_FORMAT": "xml"},
			wantMsg: "COLLEGEDESK_LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_ZeroTTLDisablesCache(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COLLEGEDESK_TIER_CACHE_TTL", "0s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Zero(t, cfg.TierCacheTTL)
}
