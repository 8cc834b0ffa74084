// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package scrapers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaTracker(t *testing.T) {
	tracker, err := NewDeltaTracker(16)
	require.NoError(t, err)

	// First sighting has no baseline.
	delta, ok := tracker.Diff("Sales.dbo.Orders.IX_Orders", "user_seeks", 100)
	assert.False(t, ok)
	assert.Zero(t, delta)

	// Growth reports the increase.
	delta, ok = tracker.Diff("Sales.dbo.Orders.IX_Orders", "user_seeks", 150)
	assert.True(t, ok)
	assert.Equal(t, uint64(50), delta)

	// No growth reports zero.
	delta, ok = tracker.Diff("Sales.dbo.Orders.IX_Orders", "user_seeks", 150)
	assert.True(t, ok)
	assert.Zero(t, delta)

	// Counter reset re-baselines.
	delta, ok = tracker.Diff("Sales.dbo.Orders.IX_Orders", "user_seeks", 10)
	assert.False(t, ok)
	assert.Zero(t, delta)

	delta, ok = tracker.Diff("Sales.dbo.Orders.IX_Orders", "user_seeks", 25)
	assert.True(t, ok)
	assert.Equal(t, uint64(15), delta)

	// Columns are tracked independently.
	_, ok = tracker.Diff("Sales.dbo.Orders.IX_Orders", "user_scans", 5)
	assert.False(t, ok)
}

func TestDeltaTrackerEviction(t *testing.T) {
	tracker, err := NewDeltaTracker(2)
	require.NoError(t, err)

	tracker.Diff("a", "user_seeks", 1)
	tracker.Diff("b", "user_seeks", 1)
	tracker.Diff("c", "user_seeks", 1) // evicts a

	_, ok := tracker.Diff("a", "user_seeks", 2)
	assert.False(t, ok, "evicted key must report no baseline")
}

func TestNewDeltaTrackerInvalidSize(t *testing.T) {
	_, err := NewDeltaTracker(0)
	require.Error(t, err)
}
