// Package config resolves memory bank settings from flags, the environment,
// an optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to upper-cased keys to form environment variable
// names, e.g. db_path is read from MEMORY_BANK_DB_PATH.
const EnvPrefix = "MEMORY_BANK"

// Configuration keys.
const (
	KeyDBPath     = "db_path"
	KeyLogLevel   = "log_level"
	KeyServerName = "server_name"
)

// DefaultServerName is reported to protocol clients when none is configured.
const DefaultServerName = "memorybank"

// Config holds resolved settings.
type Config struct {
	DBPath     string
	LogLevel   slog.Level
	ServerName string
}

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile is an optional YAML file. Empty means none.
	ConfigFile string

	// DBPath overrides every other db_path source when non-empty.
	DBPath string

	// WorkDir anchors the default store path and the .env lookup.
	// Defaults to the process working directory.
	WorkDir string
}

// DefaultDBPath returns the store path used when nothing else is configured.
func DefaultDBPath(workDir string) string {
	return filepath.Join(workDir, "db", "memory-bank.db")
}

// Load resolves configuration. Precedence, highest first: Options.DBPath,
// environment (after .env), config file, defaults.
func Load(opts Options) (*Config, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = wd
	}

	if err := loadDotEnv(filepath.Join(workDir, ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDBPath, DefaultDBPath(workDir))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyServerName, DefaultServerName)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.DBPath != "" {
		v.Set(KeyDBPath, opts.DBPath)
	}

	dbPath := v.GetString(KeyDBPath)
	if dbPath == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyDBPath)
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(workDir, dbPath)
	}

	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, err
	}

	return &Config{
		DBPath:     dbPath,
		LogLevel:   level,
		ServerName: v.GetString(KeyServerName),
	}, nil
}

// loadDotEnv loads path into the environment if it exists. Variables already
// set are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyLogLevel, s, err)
	}
	return level, nil
}
