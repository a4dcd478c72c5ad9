// Package config loads runtime settings from flags, OPREMA_* environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag names. The matching environment variables are OPREMA_ followed by the
// upper-cased name with dashes replaced by underscores.
const (
	FlagDB        = "db"
	FlagAddr      = "addr"
	FlagLog       = "log"
	FlagConfig    = "config"
	FlagJWTSecret = "jwt-secret"

	envPrefix = "OPREMA"

	defaultDBPath = "oprema.sqlite3"
	defaultAddr   = ":8080"

	minSecretLength = 16
)

var boundFlags = []string{FlagDB, FlagAddr, FlagLog, FlagJWTSecret}

// Config aggregates runtime settings.
type Config struct {
	DBPath    string
	Addr      string
	LogPath   string
	JWTSecret string
}

// AddFlags registers the shared flags on the root command.
func AddFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringP(FlagDB, "d", "", "SQLite database path (default "+defaultDBPath+")")
	f.StringP(FlagAddr, "a", "", "listen address (default "+defaultAddr+")")
	f.StringP(FlagLog, "l", "", "also write logs to this file")
	f.StringP(FlagConfig, "c", "", "YAML config file")
	f.String(FlagJWTSecret, "", "token signing secret (default: generated and kept in the database)")
}

// Load resolves the configuration for cmd. Flags take precedence over
// environment variables, which take precedence over the config file.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range boundFlags {
		if flag := cmd.Flag(name); flag != nil {
			if err := v.BindPFlag(name, flag); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	path := v.GetString(FlagConfig)
	if flag := cmd.Flag(FlagConfig); flag != nil && flag.Value.String() != "" {
		path = flag.Value.String()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		DBPath:    strings.TrimSpace(v.GetString(FlagDB)),
		Addr:      strings.TrimSpace(v.GetString(FlagAddr)),
		LogPath:   strings.TrimSpace(v.GetString(FlagLog)),
		JWTSecret: v.GetString(FlagJWTSecret),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults and rejects unusable values.
func (cfg *Config) Validate() error {
	cfg.DBPath = defaultIfEmpty(cfg.DBPath, defaultDBPath)
	cfg.Addr = defaultIfEmpty(cfg.Addr, defaultAddr)

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return nil
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
