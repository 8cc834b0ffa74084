// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlhealth/indexadvisor/internal/advisor"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "1433", cfg.Connection.Port)
	assert.Equal(t, "master", cfg.Connection.Database)
	assert.Equal(t, 30*time.Second, cfg.Connection.Timeout)
	assert.Equal(t, "table", cfg.Output)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 5*time.Minute, cfg.CollectionInterval)
	assert.Equal(t, uint(50), cfg.TopMissingIndexes)
	assert.Equal(t, uint(25), cfg.TopStatements)
	assert.Equal(t, uint(25), cfg.TopScanPlans)
	assert.True(t, cfg.ObfuscateStatements)
	assert.Equal(t, 4096, cfg.DeltaCacheSize)
	assert.Equal(t, advisor.DefaultThresholds(), cfg.Thresholds)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  hostname: sqlprod.internal
  username: advisor
  password: hunter2
  database: Sales
output: json
top-missing-indexes: 10
thresholds:
  scan-seek-ratio: 25
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlprod.internal", cfg.Connection.Hostname)
	assert.Equal(t, "Sales", cfg.Connection.Database)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, uint(10), cfg.TopMissingIndexes)
	assert.Equal(t, float64(25), cfg.Thresholds.ScanSeekRatio)
	// Untouched thresholds keep their defaults.
	assert.Equal(t, advisor.DefaultThresholds().LookupPct, cfg.Thresholds.LookupPct)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("INDEXADVISOR_OUTPUT", "yaml")
	t.Setenv("INDEXADVISOR_CONNECTION_HOSTNAME", "envhost")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)
	assert.Equal(t, "envhost", cfg.Connection.Hostname)
}

func TestConfigValidate(t *testing.T) {
	base := func() appConfig {
		cfg, err := loadConfig("")
		require.NoError(t, err)
		cfg.Connection.Hostname = "localhost"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*appConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*appConfig) {},
		},
		{
			name:    "top-missing-indexes zero",
			mutate:  func(c *appConfig) { c.TopMissingIndexes = 0 },
			wantErr: "top-missing-indexes",
		},
		{
			name:    "top-missing-indexes above DMV limit",
			mutate:  func(c *appConfig) { c.TopMissingIndexes = 601 },
			wantErr: "top-missing-indexes",
		},
		{
			name:    "top-statements too large",
			mutate:  func(c *appConfig) { c.TopStatements = 500 },
			wantErr: "top-statements",
		},
		{
			name:    "top-scan-plans too large",
			mutate:  func(c *appConfig) { c.TopScanPlans = 500 },
			wantErr: "top-scan-plans",
		},
		{
			name: "watch interval too short",
			mutate: func(c *appConfig) {
				c.Watch = true
				c.CollectionInterval = time.Second
			},
			wantErr: "collection-interval",
		},
		{
			name: "watch needs a cache",
			mutate: func(c *appConfig) {
				c.Watch = true
				c.DeltaCacheSize = 0
			},
			wantErr: "delta-cache-size",
		},
		{
			name:    "username without password",
			mutate:  func(c *appConfig) { c.Connection.Username = "sa" },
			wantErr: "username and password",
		},
		{
			name:    "bad thresholds",
			mutate:  func(c *appConfig) { c.Thresholds.ScanSeekRatio = -1 },
			wantErr: "scan-seek-ratio",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
