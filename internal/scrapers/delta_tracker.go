// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package scrapers

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DeltaTracker turns cumulative DMV counters into per-interval deltas for
// watch mode. Keys are object identity plus counter name; values are the last
// observed cumulative count.
//
// The first observation of a key has no baseline and reports no delta. A
// value below the cached one means the counters reset (service restart); the
// tracker re-baselines and reports no delta for that interval.
type DeltaTracker struct {
	cache *lru.Cache[string, uint64]
}

// NewDeltaTracker creates a tracker remembering up to size counter keys.
func NewDeltaTracker(size int) (*DeltaTracker, error) {
	cache, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create delta cache: %w", err)
	}
	return &DeltaTracker{cache: cache}, nil
}

// Diff records val under key and returns the increase since the previous
// observation. ok is false when there is no usable baseline.
func (d *DeltaTracker) Diff(key, column string, val uint64) (delta uint64, ok bool) {
	cacheKey := key + "-" + column

	prev, found := d.cache.Get(cacheKey)
	d.cache.Add(cacheKey, val)

	if !found || val < prev {
		return 0, false
	}
	return val - prev, true
}
