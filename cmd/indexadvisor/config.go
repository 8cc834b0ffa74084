// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sqlhealth/indexadvisor/internal/advisor"
	"github.com/sqlhealth/indexadvisor/internal/connection"
)

const (
	defaultPort               = "1433"
	defaultDatabase           = "master"
	defaultTimeout            = 30 * time.Second
	defaultCollectionInterval = 5 * time.Minute
	defaultTopMissingIndexes  = uint(50)
	defaultTopStatements      = uint(25)
	defaultTopScanPlans       = uint(25)
	defaultDeltaCacheSize     = 4096
	defaultOutput             = "table"

	// Server-side bounds: the missing-index DMVs stop tracking at 600
	// groups, and oversized TOP(n) statement pulls hurt the plan cache.
	maxTopMissingIndexes = uint(600)
	maxTopStatements     = uint(200)
	maxTopScanPlans      = uint(200)
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Connection connection.Config `mapstructure:"connection"`

	// InstanceName, when set, restricts the queries to one @@SERVERNAME.
	InstanceName string `mapstructure:"instance-name"`

	Output             string        `mapstructure:"output"`
	Watch              bool          `mapstructure:"watch"`
	CollectionInterval time.Duration `mapstructure:"collection-interval"`

	TopMissingIndexes uint `mapstructure:"top-missing-indexes"`
	TopStatements     uint `mapstructure:"top-statements"`
	TopScanPlans      uint `mapstructure:"top-scan-plans"`

	XESessionName       string `mapstructure:"xe-session-name"`
	ObfuscateStatements bool   `mapstructure:"obfuscate-statements"`
	DeltaCacheSize      int    `mapstructure:"delta-cache-size"`

	Thresholds advisor.Thresholds `mapstructure:"thresholds"`

	Debug      bool   `mapstructure:"debug"`
	ConfigPath string `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("INDEXADVISOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Register every key so AutomaticEnv can populate it during Unmarshal.
	v.SetDefault("connection.hostname", "")
	v.SetDefault("connection.port", defaultPort)
	v.SetDefault("connection.instance", "")
	v.SetDefault("connection.database", defaultDatabase)
	v.SetDefault("connection.username", "")
	v.SetDefault("connection.password", "")
	v.SetDefault("connection.enable-ssl", false)
	v.SetDefault("connection.trust-server-certificate", false)
	v.SetDefault("connection.timeout", defaultTimeout)
	v.SetDefault("connection.max-open-connections", 0)
	v.SetDefault("instance-name", "")
	v.SetDefault("xe-session-name", "")
	v.SetDefault("output", defaultOutput)
	v.SetDefault("watch", false)
	v.SetDefault("collection-interval", defaultCollectionInterval)
	v.SetDefault("top-missing-indexes", defaultTopMissingIndexes)
	v.SetDefault("top-statements", defaultTopStatements)
	v.SetDefault("top-scan-plans", defaultTopScanPlans)
	v.SetDefault("obfuscate-statements", true)
	v.SetDefault("delta-cache-size", defaultDeltaCacheSize)
	v.SetDefault("debug", false)

	defaults := advisor.DefaultThresholds()
	v.SetDefault("thresholds.scan-seek-ratio", defaults.ScanSeekRatio)
	v.SetDefault("thresholds.min-scans", defaults.MinScans)
	v.SetDefault("thresholds.lookup-pct", defaults.LookupPct)
	v.SetDefault("thresholds.min-lookups", defaults.MinLookups)
	v.SetDefault("thresholds.write-read-ratio", defaults.WriteReadRatio)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	// Validation happens in main after flag overrides are applied.
	return cfg, nil
}

func (c *appConfig) validate() error {
	if err := c.Connection.Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}

	if c.TopMissingIndexes == 0 || c.TopMissingIndexes > maxTopMissingIndexes {
		return fmt.Errorf("top-missing-indexes must be between 1 and %d", maxTopMissingIndexes)
	}
	if c.TopStatements == 0 || c.TopStatements > maxTopStatements {
		return fmt.Errorf("top-statements must be between 1 and %d", maxTopStatements)
	}
	if c.TopScanPlans == 0 || c.TopScanPlans > maxTopScanPlans {
		return fmt.Errorf("top-scan-plans must be between 1 and %d", maxTopScanPlans)
	}
	if c.Watch {
		if c.CollectionInterval < 10*time.Second {
			return errors.New("collection-interval must be at least 10s in watch mode")
		}
		if c.DeltaCacheSize <= 0 {
			return errors.New("delta-cache-size must be positive in watch mode")
		}
	}
	return nil
}
