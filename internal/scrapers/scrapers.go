// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package scrapers collects the raw diagnostic rows, one scraper per DMV
// concern. Scrapers are read-only and stateless; watch-mode delta state lives
// in DeltaTracker.
package scrapers

import "context"

// Querier is the slice of the connection the scrapers need. Satisfied by
// *connection.SQLConnection and by mocks in tests.
type Querier interface {
	Query(ctx context.Context, dest any, query string) error
}
