// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package advisor

import "fmt"

// Thresholds are the tunable boundaries of the classification rules.
// Zero minimum-activity floors are valid; ratio thresholds must be positive.
type Thresholds struct {
	// ScanSeekRatio flags an index as scan heavy once scans-per-seek reaches
	// this value and the scan floor is met.
	ScanSeekRatio float64 `mapstructure:"scan-seek-ratio" yaml:"scan-seek-ratio"`
	// MinScans is the scan count floor below which scan heaviness is ignored.
	// Keeps the sentinel ratio from flagging indexes with a handful of scans.
	MinScans uint64 `mapstructure:"min-scans" yaml:"min-scans"`
	// LookupPct flags an index once this percentage of its reads are lookups.
	LookupPct float64 `mapstructure:"lookup-pct" yaml:"lookup-pct"`
	// MinLookups is the lookup count floor for the lookup rule.
	MinLookups uint64 `mapstructure:"min-lookups" yaml:"min-lookups"`
	// WriteReadRatio flags a read index as low value once updates-per-read
	// reaches this value.
	WriteReadRatio float64 `mapstructure:"write-read-ratio" yaml:"write-read-ratio"`
}

// DefaultThresholds returns the boundaries the hand-run diagnostic queries
// shipped with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ScanSeekRatio:  10,
		MinScans:       100,
		LookupPct:      30,
		MinLookups:     100,
		WriteReadRatio: 10,
	}
}

// Validate checks that the ratio thresholds are usable.
func (t Thresholds) Validate() error {
	if t.ScanSeekRatio <= 0 {
		return fmt.Errorf("scan-seek-ratio must be positive, got %v", t.ScanSeekRatio)
	}
	if t.LookupPct <= 0 || t.LookupPct > 100 {
		return fmt.Errorf("lookup-pct must be in (0, 100], got %v", t.LookupPct)
	}
	if t.WriteReadRatio <= 0 {
		return fmt.Errorf("write-read-ratio must be positive, got %v", t.WriteReadRatio)
	}
	return nil
}
