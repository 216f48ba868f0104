// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Datastore selects the backing store for every driven port.
type Datastore string

const (
	DatastoreSQLite Datastore = "sqlite"
	DatastoreRemote Datastore = "remote"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr   string
	DBPath       string
	Datastore    Datastore
	DatastoreURL string
	DatastoreKey string
	TierCacheTTL time.Duration
	LogLevel     slog.Level
	LogFormat    string
}

// UsesRemote returns true when the hosted data store replaces the embedded database.
func (c *Config) UsesRemote() bool {
	return c.Datastore == DatastoreRemote
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: COLLEGEDESK_LISTEN_ADDR (127.0.0.1:8080),
// COLLEGEDESK_DB_PATH (collegedesk.db), COLLEGEDESK_DATASTORE (sqlite),
// COLLEGEDESK_TIER_CACHE_TTL (5m), COLLEGEDESK_LOG_LEVEL (info),
// COLLEGEDESK_LOG_FORMAT (text). COLLEGEDESK_DATASTORE_URL and
// COLLEGEDESK_DATASTORE_KEY are required when the datastore is remote.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("COLLEGEDESK_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "collegedesk.db"
	if v, ok := os.LookupEnv("COLLEGEDESK_DB_PATH"); ok {
		dbPath = v
	}

	datastore := DatastoreSQLite
	if v, ok := os.LookupEnv("COLLEGEDESK_DATASTORE"); ok && v != "" {
		switch Datastore(strings.ToLower(strings.TrimSpace(v))) {
		case DatastoreSQLite:
		case DatastoreRemote:
			datastore = DatastoreRemote
		default:
			return nil, fmt.Errorf("COLLEGEDESK_DATASTORE must be %q or %q, got %q", DatastoreSQLite, DatastoreRemote, v)
		}
	}

	datastoreURL := strings.TrimSpace(os.Getenv("COLLEGEDESK_DATASTORE_URL"))
	datastoreKey := strings.TrimSpace(os.Getenv("COLLEGEDESK_DATASTORE_KEY"))
	if datastore == DatastoreRemote {
		if datastoreURL == "" {
			return nil, fmt.Errorf("COLLEGEDESK_DATASTORE_URL is required when COLLEGEDESK_DATASTORE=%s", DatastoreRemote)
		}
		if datastoreKey == "" {
			return nil, fmt.Errorf("COLLEGEDESK_DATASTORE_KEY is required when COLLEGEDESK_DATASTORE=%s", DatastoreRemote)
		}
	}

	tierCacheTTL := 5 * time.Minute
	if v, ok := os.LookupEnv("COLLEGEDESK_TIER_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("COLLEGEDESK_TIER_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("COLLEGEDESK_TIER_CACHE_TTL must not be negative, got %q", v)
		}
		tierCacheTTL = parsed
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("COLLEGEDESK_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("COLLEGEDESK_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	logFormat := "text"
	if v, ok := os.LookupEnv("COLLEGEDESK_LOG_FORMAT"); ok && v != "" {
		switch strings.ToLower(v) {
		case "text", "json":
			logFormat = strings.ToLower(v)
		default:
			return nil, fmt.Errorf("COLLEGEDESK_LOG_FORMAT must be \"text\" or \"json\", got %q", v)
		}
	}

	return &Config{
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
		Datastore:    datastore,
		DatastoreURL: datastoreURL,
		DatastoreKey: datastoreKey,
		TierCacheTTL: tierCacheTTL,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
	}, nil
}
